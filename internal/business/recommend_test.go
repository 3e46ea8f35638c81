package business

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func biz(id int64, cats ...string) Business {
	return Business{ID: id, Name: fmt.Sprintf("resto-%d", id), Categories: cats}
}

func TestRecommendScoresByOverlap(t *testing.T) {
	all := []Business{
		biz(1, "pizza"),
		biz(2, "pizza", "burgers", "desserts"),
		biz(3, "sushi"),
		biz(4, "burgers", "desserts"),
	}

	got := Recommend(all, []string{"pizza", "burgers", "desserts"})

	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].ID) // three matches
	assert.Equal(t, int64(4), got[1].ID) // two matches
	assert.Equal(t, int64(1), got[2].ID) // one match
}

func TestRecommendDropsNonMatches(t *testing.T) {
	all := []Business{biz(1, "sushi"), biz(2, "ramen")}
	got := Recommend(all, []string{"pizza"})
	assert.Empty(t, got)
}

func TestRecommendNoPreferencesFallsBack(t *testing.T) {
	var all []Business
	for i := int64(1); i <= 15; i++ {
		all = append(all, biz(i, "pizza"))
	}

	got := Recommend(all, nil)
	require.Len(t, got, 10)
	assert.Equal(t, int64(1), got[0].ID)

	short := Recommend(all[:3], nil)
	assert.Len(t, short, 3)
}

func TestRecommendStableForEqualScores(t *testing.T) {
	all := []Business{biz(1, "pizza"), biz(2, "pizza"), biz(3, "pizza")}
	got := Recommend(all, []string{"pizza"})
	require.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
	assert.Equal(t, int64(3), got[2].ID)
}
