package migrations

import (
	"math"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/types"
)

func TestVariancePercentageColumnFitsLargestRatio(t *testing.T) {
	raw, err := FS.ReadFile("00001_init.sql")
	require.NoError(t, err)

	m := regexp.MustCompile(`variance_percentage\s+NUMERIC\((\d+),(\d+)\)`).FindSubmatch(raw)
	require.NotNil(t, m, "variance_percentage column not found")
	precision, _ := strconv.Atoi(string(m[1]))
	scale, _ := strconv.Atoi(string(m[2]))
	assert.Equal(t, int(types.PercentScale), scale)

	// physical at the BIGINT ceiling counted against a system quantity of one
	widest := types.Percent(math.MaxInt64-1, 1)
	intDigits := len(widest.Abs().Truncate(0).String())
	assert.LessOrEqual(t, intDigits, precision-scale, "percentage %s overflows NUMERIC(%d,%d)", widest, precision, scale)
}
