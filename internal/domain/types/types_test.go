package types_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sportid/internal/domain/types"
)

func TestEntryJSON(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		entry := types.Entry{Rank: 2, AthleteID: "athlete-7", XP: 12400}

		Convey("When encoded", func() {
			raw, err := json.Marshal(entry)

			Convey("Then it uses snake_case keys", func() {
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, `{"rank":2,"athlete_id":"athlete-7","xp":12400}`)
			})
		})
	})
}
