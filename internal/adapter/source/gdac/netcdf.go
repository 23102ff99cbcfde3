package gdac

import (
	"fmt"
	"math"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"
)

// profileData holds the decoded content of one multi-profile core file.
// Per-level arrays are flattened row-major over [N_PROF, N_LEVELS];
// missing samples are NaN (numeric) or empty (flags).
type profileData struct {
	nProf, nLevels int

	cycle, juld, lat, lon []float64
	mode, posQC           []string

	pres, temp, psal          []float64
	presAdj, tempAdj, psalAdj []float64
	presQC, tempQC, psalQC    []string
}

// readProfileFile decodes a <wmo>_prof.nc core file.
func readProfileFile(path string) (*profileData, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile file %s: %w", path, err)
	}
	defer func() { _ = nc.Close() }()

	nProf, nLevels, err := profileShape(nc)
	if err != nil {
		return nil, err
	}
	total := nProf * nLevels

	pf := &profileData{nProf: nProf, nLevels: nLevels}
	if pf.cycle, err = readFloats(nc, "CYCLE_NUMBER", nProf); err != nil {
		return nil, err
	}
	if pf.juld, err = readFloats(nc, "JULD", nProf); err != nil {
		return nil, err
	}
	if pf.lat, err = readFloats(nc, "LATITUDE", nProf); err != nil {
		return nil, err
	}
	if pf.lon, err = readFloats(nc, "LONGITUDE", nProf); err != nil {
		return nil, err
	}
	if pf.pres, err = readFloats(nc, "PRES", total); err != nil {
		return nil, err
	}
	if pf.temp, err = readFloats(nc, "TEMP", total); err != nil {
		return nil, err
	}
	if pf.psal, err = readFloats(nc, "PSAL", total); err != nil {
		return nil, err
	}

	pf.mode = readCharsOr(nc, "DATA_MODE", nProf, "R")
	pf.posQC = readCharsOr(nc, "POSITION_QC", nProf, "")
	pf.presQC = readCharsOr(nc, "PRES_QC", total, "")
	pf.tempQC = readCharsOr(nc, "TEMP_QC", total, "")
	pf.psalQC = readCharsOr(nc, "PSAL_QC", total, "")
	pf.presAdj = readFloatsOr(nc, "PRES_ADJUSTED", total)
	pf.tempAdj = readFloatsOr(nc, "TEMP_ADJUSTED", total)
	pf.psalAdj = readFloatsOr(nc, "PSAL_ADJUSTED", total)

	return pf, nil
}

// profileShape derives [N_PROF, N_LEVELS] from the PRES variable.
func profileShape(nc netcdf.Dataset) (int, int, error) {
	v, err := nc.Var("PRES")
	if err != nil {
		return 0, 0, fmt.Errorf("profile file has no PRES variable: %w", err)
	}
	dims, err := v.Dims()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get PRES dimensions: %w", err)
	}
	if len(dims) != 2 {
		return 0, 0, fmt.Errorf("expected 2D PRES, got %dD", len(dims))
	}
	nProf, err := dims[0].Len()
	if err != nil {
		return 0, 0, err
	}
	nLevels, err := dims[1].Len()
	if err != nil {
		return 0, 0, err
	}
	return int(nProf), int(nLevels), nil
}

// readFloats reads a numeric variable of known total length, replacing
// fill values with NaN.
func readFloats(nc netcdf.Dataset, name string, total int) ([]float64, error) {
	v, err := nc.Var(name)
	if err != nil {
		return nil, fmt.Errorf("profile file has no %s variable: %w", name, err)
	}
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s type: %w", name, err)
	}

	var data []float64
	switch t {
	case netcdf.DOUBLE:
		data = make([]float64, total)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		data = make([]float64, total)
		for i, val := range tmp {
			data[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		data = make([]float64, total)
		for i, val := range tmp {
			data[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported type for %s: %v", name, t)
	}

	if fv, ok := fillValue(v); ok {
		for i, val := range data {
			if val == fv {
				data[i] = math.NaN()
			}
		}
	}
	return data, nil
}

// readFloatsOr reads an optional numeric variable, returning all-NaN when
// the variable is absent (older core files lack the adjusted fields).
func readFloatsOr(nc netcdf.Dataset, name string, total int) []float64 {
	data, err := readFloats(nc, name, total)
	if err != nil {
		data = make([]float64, total)
		for i := range data {
			data[i] = math.NaN()
		}
	}
	return data
}

// readCharsOr reads an optional CHAR variable as one-character strings,
// returning the fallback for every element when the variable is absent.
func readCharsOr(nc netcdf.Dataset, name string, total int, fallback string) []string {
	out := make([]string, total)
	v, err := nc.Var(name)
	if err != nil {
		for i := range out {
			out[i] = fallback
		}
		return out
	}
	raw := make([]byte, total)
	if err := v.ReadBytes(raw); err != nil {
		for i := range out {
			out[i] = fallback
		}
		return out
	}
	for i, c := range raw {
		s := strings.TrimSpace(string(rune(c)))
		if s == "" {
			s = fallback
		}
		out[i] = s
	}
	return out
}

// fillValue returns the _FillValue attribute of a variable if present.
func fillValue(v netcdf.Var) (float64, bool) {
	a := v.Attr("_FillValue")
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, 1)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	return 0, false
}
