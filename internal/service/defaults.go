package service

import (
	"context"

	"github.com/lavolpecheprogramma/tanklog/internal/model"
)

var parameterColorAliases = map[string]string{
	"temperature": "temp",
	"calcium":     "ca",
	"magnesium":   "mg",
}

var defaultParameterColors = map[string]string{
	"temp":     "#f97316",
	"salinity": "#06b6d4",
	"ph":       "#a855f7",
	"kh":       "#3b82f6",
	"gh":       "#6366f1",
	"ca":       "#ec4899",
	"mg":       "#10b981",
	"nh3":      "#f59e0b",
	"no2":      "#ef4444",
	"no3":      "#22c55e",
	"po4":      "#14b8a6",
	"fe":       "#eab308",
}

// DefaultColorForParameter returns the suggested chart color for a
// parameter, or "" for unknown parameters.
func DefaultColorForParameter(parameter string) string {
	key := normalizeParameterKey(parameter)
	if key == "" {
		return ""
	}
	if alias, ok := parameterColorAliases[key]; ok {
		key = alias
	}
	return defaultParameterColors[key]
}

func band(parameter string, min, max float64, unit string, status model.RangeStatus) model.ParameterRange {
	return model.ParameterRange{
		Parameter: parameter,
		MinValue:  &min,
		MaxValue:  &max,
		Unit:      unit,
		Status:    status,
		Color:     DefaultColorForParameter(parameter),
	}
}

// DefaultRangesForTankKind returns the suggested starting thresholds for a
// tank kind. They seed PARAMETER_RANGES at tank creation and back the
// "apply preset" action in the ranges editor; user-edited ranges are never
// overwritten automatically. These are hobbyist starting points, not hard
// limits.
func DefaultRangesForTankKind(kind model.TankKind) []model.ParameterRange {
	switch kind {
	case model.TankReef:
		return []model.ParameterRange{
			band("Temp", 24, 26, "°C", model.RangeOptimal),
			band("Temp", 23, 27, "°C", model.RangeAcceptable),
			band("Temp", 22, 28, "°C", model.RangeCritical),

			band("Salinity", 34.5, 35.5, "ppt", model.RangeOptimal),
			band("Salinity", 34, 36, "ppt", model.RangeAcceptable),
			band("Salinity", 33, 37, "ppt", model.RangeCritical),

			band("pH", 8.1, 8.3, "pH", model.RangeOptimal),
			band("pH", 7.8, 8.4, "pH", model.RangeAcceptable),
			band("pH", 7.7, 8.5, "pH", model.RangeCritical),

			band("KH", 7, 9, "dKH", model.RangeOptimal),
			band("KH", 6.5, 10, "dKH", model.RangeAcceptable),
			band("KH", 5.5, 11.5, "dKH", model.RangeCritical),

			band("Ca", 400, 440, "ppm", model.RangeOptimal),
			band("Ca", 380, 460, "ppm", model.RangeAcceptable),
			band("Ca", 350, 480, "ppm", model.RangeCritical),

			band("Mg", 1250, 1350, "ppm", model.RangeOptimal),
			band("Mg", 1200, 1450, "ppm", model.RangeAcceptable),
			band("Mg", 1100, 1500, "ppm", model.RangeCritical),

			band("NH3", 0, 0, "mg/l", model.RangeOptimal),
			band("NH3", 0, 0.02, "mg/l", model.RangeAcceptable),
			band("NH3", 0, 0.05, "mg/l", model.RangeCritical),

			band("NO2", 0, 0, "mg/l", model.RangeOptimal),
			band("NO2", 0, 0.05, "mg/l", model.RangeAcceptable),
			band("NO2", 0, 0.1, "mg/l", model.RangeCritical),

			band("NO3", 2, 10, "mg/l", model.RangeOptimal),
			band("NO3", 0, 20, "mg/l", model.RangeAcceptable),
			band("NO3", 0, 50, "mg/l", model.RangeCritical),

			band("PO4", 0.02, 0.1, "mg/l", model.RangeOptimal),
			band("PO4", 0, 0.2, "mg/l", model.RangeAcceptable),
			band("PO4", 0, 0.4, "mg/l", model.RangeCritical),
		}
	case model.TankMarine:
		return []model.ParameterRange{
			band("Temp", 24, 26, "°C", model.RangeOptimal),
			band("Temp", 23, 27, "°C", model.RangeAcceptable),
			band("Temp", 22, 28, "°C", model.RangeCritical),

			band("Salinity", 34, 36, "ppt", model.RangeOptimal),
			band("Salinity", 33, 37, "ppt", model.RangeAcceptable),
			band("Salinity", 32, 38, "ppt", model.RangeCritical),

			band("pH", 8.0, 8.3, "pH", model.RangeOptimal),
			band("pH", 7.8, 8.4, "pH", model.RangeAcceptable),
			band("pH", 7.6, 8.5, "pH", model.RangeCritical),

			band("KH", 7, 10, "dKH", model.RangeOptimal),
			band("KH", 6, 11, "dKH", model.RangeAcceptable),
			band("KH", 5, 12.5, "dKH", model.RangeCritical),

			band("Ca", 400, 440, "ppm", model.RangeOptimal),
			band("Ca", 380, 460, "ppm", model.RangeAcceptable),
			band("Ca", 350, 480, "ppm", model.RangeCritical),

			band("Mg", 1250, 1350, "ppm", model.RangeOptimal),
			band("Mg", 1200, 1450, "ppm", model.RangeAcceptable),
			band("Mg", 1100, 1500, "ppm", model.RangeCritical),

			band("NH3", 0, 0, "mg/l", model.RangeOptimal),
			band("NH3", 0, 0.02, "mg/l", model.RangeAcceptable),
			band("NH3", 0, 0.05, "mg/l", model.RangeCritical),

			band("NO2", 0, 0, "mg/l", model.RangeOptimal),
			band("NO2", 0, 0.1, "mg/l", model.RangeAcceptable),
			band("NO2", 0, 0.2, "mg/l", model.RangeCritical),

			band("NO3", 0, 20, "mg/l", model.RangeOptimal),
			band("NO3", 0, 40, "mg/l", model.RangeAcceptable),
			band("NO3", 0, 80, "mg/l", model.RangeCritical),

			band("PO4", 0, 0.2, "mg/l", model.RangeOptimal),
			band("PO4", 0, 0.3, "mg/l", model.RangeAcceptable),
			band("PO4", 0, 0.5, "mg/l", model.RangeCritical),
		}
	case model.TankPlanted:
		return []model.ParameterRange{
			band("Temp", 23, 26, "°C", model.RangeOptimal),
			band("Temp", 22, 28, "°C", model.RangeAcceptable),
			band("Temp", 20, 30, "°C", model.RangeCritical),

			band("pH", 6.2, 7.0, "pH", model.RangeOptimal),
			band("pH", 5.8, 7.5, "pH", model.RangeAcceptable),
			band("pH", 5.5, 8.0, "pH", model.RangeCritical),

			band("KH", 2, 6, "dKH", model.RangeOptimal),
			band("KH", 1, 8, "dKH", model.RangeAcceptable),
			band("KH", 0.5, 10, "dKH", model.RangeCritical),

			band("GH", 4, 10, "dGH", model.RangeOptimal),
			band("GH", 3, 14, "dGH", model.RangeAcceptable),
			band("GH", 2, 18, "dGH", model.RangeCritical),

			band("NH3", 0, 0, "mg/l", model.RangeOptimal),
			band("NH3", 0, 0.02, "mg/l", model.RangeAcceptable),
			band("NH3", 0, 0.05, "mg/l", model.RangeCritical),

			band("NO2", 0, 0, "mg/l", model.RangeOptimal),
			band("NO2", 0, 0.1, "mg/l", model.RangeAcceptable),
			band("NO2", 0, 0.2, "mg/l", model.RangeCritical),

			band("NO3", 5, 20, "mg/l", model.RangeOptimal),
			band("NO3", 0, 30, "mg/l", model.RangeAcceptable),
			band("NO3", 0, 50, "mg/l", model.RangeCritical),

			band("PO4", 0.2, 1.5, "mg/l", model.RangeOptimal),
			band("PO4", 0.05, 2.0, "mg/l", model.RangeAcceptable),
			band("PO4", 0, 3.0, "mg/l", model.RangeCritical),

			band("Fe", 0.05, 0.2, "ppm", model.RangeOptimal),
			band("Fe", 0.02, 0.3, "ppm", model.RangeAcceptable),
			band("Fe", 0, 0.5, "ppm", model.RangeCritical),
		}
	default:
		return []model.ParameterRange{
			band("Temp", 24, 26, "°C", model.RangeOptimal),
			band("Temp", 22, 28, "°C", model.RangeAcceptable),
			band("Temp", 20, 30, "°C", model.RangeCritical),

			band("pH", 7.0, 7.5, "pH", model.RangeOptimal),
			band("pH", 6.5, 8.0, "pH", model.RangeAcceptable),
			band("pH", 6.0, 8.5, "pH", model.RangeCritical),

			band("KH", 4, 8, "dKH", model.RangeOptimal),
			band("KH", 3, 10, "dKH", model.RangeAcceptable),
			band("KH", 1, 12, "dKH", model.RangeCritical),

			band("GH", 6, 12, "dGH", model.RangeOptimal),
			band("GH", 4, 16, "dGH", model.RangeAcceptable),
			band("GH", 2, 20, "dGH", model.RangeCritical),

			band("NH3", 0, 0, "mg/l", model.RangeOptimal),
			band("NH3", 0, 0.02, "mg/l", model.RangeAcceptable),
			band("NH3", 0, 0.05, "mg/l", model.RangeCritical),

			band("NO2", 0, 0, "mg/l", model.RangeOptimal),
			band("NO2", 0, 0.1, "mg/l", model.RangeAcceptable),
			band("NO2", 0, 0.2, "mg/l", model.RangeCritical),

			band("NO3", 0, 20, "mg/l", model.RangeOptimal),
			band("NO3", 0, 40, "mg/l", model.RangeAcceptable),
			band("NO3", 0, 80, "mg/l", model.RangeCritical),

			band("PO4", 0, 1.0, "mg/l", model.RangeOptimal),
			band("PO4", 0, 2.0, "mg/l", model.RangeAcceptable),
			band("PO4", 0, 5.0, "mg/l", model.RangeCritical),
		}
	}
}

// ApplyDefaults seeds the threshold table with the preset for a tank kind,
// replacing whatever is stored.
func (s *Ranges) ApplyDefaults(ctx context.Context, spreadsheetID string, kind model.TankKind) (int, error) {
	defaults := DefaultRangesForTankKind(kind)
	inputs := make([]RangeInput, 0, len(defaults))
	for _, r := range defaults {
		inputs = append(inputs, RangeInput{
			Parameter: r.Parameter,
			MinValue:  r.MinValue,
			MaxValue:  r.MaxValue,
			Unit:      r.Unit,
			Status:    r.Status,
			Color:     r.Color,
		})
	}
	return s.Save(ctx, spreadsheetID, inputs)
}
