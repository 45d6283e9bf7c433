package pairing

import (
	"sort"

	"github.com/warta-arena/arena-api/models"
)

// Pair is one generated match-up of two user ids.
type Pair struct {
	Player1ID int
	Player2ID int
}

// Generator produces the match-ups for one round from a closed registration
// list. Implementations must not mutate the input slice.
type Generator interface {
	Generate(participants []*models.Participant) []Pair
}

type rankedPairGenerator struct{}

// NewRankedPairGenerator returns the seeding used for round one: participants
// sorted by ranking descending, then paired consecutively as (0,1), (2,3) and
// so on. With an odd count the last participant gets a bye and appears in no
// pair.
func NewRankedPairGenerator() Generator {
	return &rankedPairGenerator{}
}

func (g *rankedPairGenerator) Generate(participants []*models.Participant) []Pair {
	if len(participants) < 2 {
		return nil
	}

	ranked := make([]*models.Participant, len(participants))
	copy(ranked, participants)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Ranking > ranked[j].Ranking
	})

	pairs := make([]Pair, 0, len(ranked)/2)
	for i := 0; i+1 < len(ranked); i += 2 {
		pairs = append(pairs, Pair{
			Player1ID: ranked[i].UserID,
			Player2ID: ranked[i+1].UserID,
		})
	}
	return pairs
}
