package indicator

import (
	"fmt"

	talib "github.com/markcheno/go-talib"
)

// OBV is on-balance volume seeded with the first bar's volume
func OBV(closes, volumes []float64) ([]float64, error) {
	if len(closes) == 0 || len(closes) != len(volumes) {
		return nil, fmt.Errorf("obv over %d closes / %d volumes: %w", len(closes), len(volumes), ErrInsufficientData)
	}
	return talib.Obv(closes, volumes), nil
}
