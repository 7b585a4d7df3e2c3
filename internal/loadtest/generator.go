package loadtest

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sportid/internal/domain/model"
)

// Performance bands used to spread athletes across the leaderboard.
const (
	bandCasual = iota
	bandRegular
	bandStrong
	bandElite
	bandCount
)

var generatedSports = []model.SportType{
	model.SportRunning, model.SportSwimming, model.SportGym,
	model.SportBasketball, model.SportSoccer, model.SportTennis,
}

// generator builds screenshot texts the way fitness apps lay them out.
type generator struct {
	rnd *rand.Rand
	now time.Time
}

func newGenerator(seed uint64, now time.Time) *generator {
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}
	return &generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), now: now}
}

// athletes returns n unique athlete IDs.
func (g *generator) athletes(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = prefix + "-" + uuid.NewString()[:8]
	}
	return ids
}

// submissions creates perAthlete submissions for every athlete.
func (g *generator) submissions(athletes []string, perAthlete int) []Submission {
	out := make([]Submission, 0, len(athletes)*perAthlete)
	for _, athlete := range athletes {
		band := g.rnd.IntN(bandCount)
		for i := 0; i < perAthlete; i++ {
			sport := generatedSports[g.rnd.IntN(len(generatedSports))]
			out = append(out, Submission{
				SubmissionID: uuid.NewString(),
				AthleteID:    athlete,
				Sport:        sport,
				Text:         g.screenshot(sport, band, i),
				Content:      fmt.Sprintf("Load test %s session %d", sport, i+1),
			})
		}
	}
	g.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// screenshot renders an OCR-like text block. Day offsets keep dates in the past.
func (g *generator) screenshot(sport model.SportType, band, day int) string {
	minutes := g.minutes(band)
	var b strings.Builder
	fmt.Fprintf(&b, "%s Workout\n", sport.Label())
	fmt.Fprintf(&b, "Duration: %s min\n", clock(minutes))
	if sport == model.SportRunning || sport == model.SportSwimming {
		km := g.distance(sport, minutes)
		fmt.Fprintf(&b, "Distance: %.2f km\n", km)
		if sport == model.SportRunning && km > 0 {
			pace := minutes / km
			fmt.Fprintf(&b, "Avg Pace: %d:%02d /km\n", int(pace), int((pace-float64(int(pace)))*60))
		}
	}
	fmt.Fprintf(&b, "Calories: %d kcal\n", int(minutes*float64(6+g.rnd.IntN(6))))
	// Some screenshots carry no date so the service infers it.
	if g.rnd.IntN(4) != 0 {
		fmt.Fprintf(&b, "Date: %s\n", g.now.AddDate(0, 0, -day).Format("2006-01-02"))
	}
	return b.String()
}

func (g *generator) minutes(band int) float64 {
	switch band {
	case bandCasual:
		return 10 + g.rnd.Float64()*20
	case bandRegular:
		return 25 + g.rnd.Float64()*25
	case bandStrong:
		return 45 + g.rnd.Float64()*30
	default:
		return 70 + g.rnd.Float64()*50
	}
}

func (g *generator) distance(sport model.SportType, minutes float64) float64 {
	if sport == model.SportSwimming {
		return minutes / (25 + g.rnd.Float64()*10)
	}
	return minutes / (4.5 + g.rnd.Float64()*2.5)
}

// clock formats minutes as HH:MM:SS or MM:SS.
func clock(minutes float64) string {
	total := int(minutes * 60)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
