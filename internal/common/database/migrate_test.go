package database

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafe-directory/internal/models"
)

var enumPattern = regexp.MustCompile(`CREATE TYPE (\w+) AS ENUM \(([^)]*)\)`)

func schemaEnums(t *testing.T) map[string][]string {
	t.Helper()
	raw, err := migrationFiles.ReadFile("migrations/000001_init_schema.up.sql")
	require.NoError(t, err)

	enums := make(map[string][]string)
	for _, m := range enumPattern.FindAllStringSubmatch(string(raw), -1) {
		var labels []string
		for _, part := range strings.Split(m[2], ",") {
			labels = append(labels, strings.Trim(strings.TrimSpace(part), "'"))
		}
		enums[m[1]] = labels
	}
	return enums
}

// The rating refresh averages array_position over the star_rating enum, so the
// declared label order has to match StarRating.Score.
func TestSchema_StarRatingOrderMatchesScore(t *testing.T) {
	labels := schemaEnums(t)["star_rating"]
	require.Len(t, labels, len(models.StarRatings))

	for i, label := range labels {
		assert.Equal(t, i+1, models.StarRating(label).Score(), label)
	}
	assert.Equal(t, 0, models.StarRating("enam").Score())
}

func TestSchema_VisitorTypesMatchModel(t *testing.T) {
	assert.Equal(t, models.EnumStrings(models.VisitorTypes), schemaEnums(t)["visitor_type"])
}
