package owners

import (
	"math/rand"
	"sort"
)

// rankOwners orders owners by distance (closest first). Owners at the same
// distance are shuffled with the caller's seed so that repeated queries with
// the same seed are reproducible while no owner is systematically favored.
// A positive limit caps the result after ranking.
func rankOwners(list []Owner, seed int64, limit int) []Owner {
	// Stable pre-sort so the shuffle input does not depend on map order.
	sort.Slice(list, func(i, j int) bool {
		if list[i].Distance != list[j].Distance {
			return list[i].Distance < list[j].Distance
		}
		return list[i].Reference.Email < list[j].Reference.Email
	})

	rng := rand.New(rand.NewSource(seed))
	for start := 0; start < len(list); {
		end := start + 1
		for end < len(list) && list[end].Distance == list[start].Distance {
			end++
		}
		tie := list[start:end]
		rng.Shuffle(len(tie), func(i, j int) { tie[i], tie[j] = tie[j], tie[i] })
		start = end
	}

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

// sampleUsers draws a reproducible random sample of size n from users.
func sampleUsers(users []string, n int, seed int64) []string {
	pool := append([]string(nil), users...)
	sort.Strings(pool)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if n < len(pool) {
		pool = pool[:n]
	}
	return pool
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	n := 0
	for i, v := range out {
		if i > 0 && v == out[i-1] {
			continue
		}
		out[n] = v
		n++
	}
	return out[:n]
}
