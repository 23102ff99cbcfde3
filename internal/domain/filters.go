package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Data modes per the Argo user manual: real-time, real-time adjusted,
// delayed-mode.
const (
	DataModeRealTime = "R"
	DataModeAdjusted = "A"
	DataModeDelayed  = "D"
)

// DataModeVar names the per-point provenance variable.
const DataModeVar = "DATA_MODE"

const (
	adjustedSuffix = "_ADJUSTED"
	qcSuffix       = "_QC"
	errorSuffix    = "_ADJUSTED_ERROR"
)

// goodQCFlags are the quality-control flags kept by FilterQC: good data (1)
// and probably good data (2).
var goodQCFlags = map[int]bool{1: true, 2: true}

// standardVars is the variable set kept in standard user mode.
var standardVars = map[string]bool{
	"PLATFORM_NUMBER": true,
	"CYCLE_NUMBER":    true,
	"PRES":            true,
	"TEMP":            true,
	"PSAL":            true,
	"DOXY":            true,
}

// FilterDataMode merges adjusted variables into their core counterparts
// according to the per-point DATA_MODE: adjusted and delayed-mode points
// take the <VAR>_ADJUSTED value (and its QC flag), real-time points keep
// the raw value. All *_ADJUSTED variables are dropped afterwards. A
// dataset without a DATA_MODE variable is returned unchanged.
func FilterDataMode(ds *Dataset) (*Dataset, error) {
	mode, ok := ds.Var(DataModeVar)
	if !ok {
		return ds, nil
	}
	if !mode.IsText() || mode.Len() != ds.Len() {
		return nil, fmt.Errorf("%s must be a per-point string variable", DataModeVar)
	}
	for _, name := range ds.VarNames() {
		if strings.HasSuffix(name, adjustedSuffix) || strings.HasSuffix(name, qcSuffix) {
			continue
		}
		adj, ok := ds.Var(name + adjustedSuffix)
		if !ok {
			continue
		}
		core, _ := ds.Var(name)
		if core.IsText() || adj.IsText() {
			continue
		}
		adjQC, hasAdjQC := ds.Var(name + adjustedSuffix + qcSuffix)
		coreQC, hasCoreQC := ds.Var(name + qcSuffix)
		for i := 0; i < ds.Len(); i++ {
			m := strings.TrimSpace(mode.Text[i])
			if m != DataModeAdjusted && m != DataModeDelayed {
				continue
			}
			core.Values[i] = adj.Values[i]
			if hasAdjQC && hasCoreQC {
				copyCell(coreQC, adjQC, i)
			}
		}
	}
	for _, name := range ds.VarNames() {
		if strings.HasSuffix(name, errorSuffix) ||
			strings.HasSuffix(name, adjustedSuffix) ||
			strings.HasSuffix(name, adjustedSuffix+qcSuffix) {
			ds.DropVar(name)
		}
	}
	return ds, nil
}

func copyCell(dst, src *Variable, i int) {
	if dst.IsText() && src.IsText() {
		dst.Text[i] = src.Text[i]
	} else if !dst.IsText() && !src.IsText() {
		dst.Values[i] = src.Values[i]
	}
}

// FilterQC drops every point carrying a quality-control flag other than
// good (1) or probably good (2) on any *_QC variable. Points whose flags
// are missing or unparsable are dropped too. A dataset without QC
// variables is returned unchanged.
func FilterQC(ds *Dataset) (*Dataset, error) {
	qcVars := make([]*Variable, 0)
	for _, name := range ds.VarNames() {
		if !strings.HasSuffix(name, qcSuffix) {
			continue
		}
		v, _ := ds.Var(name)
		if v.Len() == ds.Len() {
			qcVars = append(qcVars, v)
		}
	}
	if len(qcVars) == 0 {
		return ds, nil
	}
	keep := make([]bool, ds.Len())
	for i := range keep {
		keep[i] = true
		for _, v := range qcVars {
			flag, ok := qcFlag(v, i)
			if !ok || !goodQCFlags[flag] {
				keep[i] = false
				break
			}
		}
	}
	return ds.Select(keep)
}

func qcFlag(v *Variable, i int) (int, bool) {
	if v.IsText() {
		s := strings.TrimSpace(v.Text[i])
		if s == "" {
			return 0, false
		}
		flag, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return flag, true
	}
	return int(v.Values[i]), true
}

// FilterVariables reduces the dataset to the standard-mode variable list,
// dropping QC flags, data modes and every non-core variable. Coordinates
// are always kept. In any mode other than "standard" the dataset is
// returned unchanged.
func FilterVariables(ds *Dataset, mode string) (*Dataset, error) {
	if mode != "standard" {
		return ds, nil
	}
	for _, name := range ds.VarNames() {
		if !standardVars[name] {
			ds.DropVar(name)
		}
	}
	return ds, nil
}
