package extract_test

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sportid/internal/domain/extract"
	"github.com/okian/sportid/internal/domain/model"
)

func TestExtractDistance(t *testing.T) {
	Convey("Given distance text", t, func() {
		Convey("When the unit is kilometers", func() {
			d := extract.Distance("Distance: 5 km")
			So(d, ShouldNotBeNil)
			So(*d, ShouldEqual, 5.0)
		})

		Convey("When the unit is miles", func() {
			d := extract.Distance("Ran 3.1 mi")
			So(d, ShouldNotBeNil)
			So(*d, ShouldAlmostEqual, 3.1*1.60934, 1e-9)
			So(*d, ShouldAlmostEqual, 4.989, 0.001)
		})

		Convey("When the unit is spelled out", func() {
			So(*extract.Distance("Covered 10 kilometers"), ShouldEqual, 10.0)
			So(*extract.Distance("run 2 miles"), ShouldAlmostEqual, 3.21868, 1e-9)
		})

		Convey("When the number does not parse", func() {
			So(extract.Distance("Distance 1.2.3 km"), ShouldBeNil)
		})

		Convey("When there is no label", func() {
			So(extract.Distance("5 km"), ShouldBeNil)
		})
	})
}

func TestExtractDuration(t *testing.T) {
	Convey("Given duration text", t, func() {
		Convey("When written as h:mm:ss", func() {
			d := extract.Duration("Duration: 1:30:00 hours")
			So(d, ShouldNotBeNil)
			So(*d, ShouldEqual, 90.0)
		})

		Convey("When written as mm:ss", func() {
			So(*extract.Duration("Time 28:30 min"), ShouldEqual, 29.0)
			So(*extract.Duration("Time 28:20 min"), ShouldEqual, 28.0)
		})

		Convey("When a bare number carries the unit", func() {
			So(*extract.Duration("Time: 45 minutes"), ShouldEqual, 45.0)
			So(*extract.Duration("Duration 2 hours"), ShouldEqual, 120.0)
			So(*extract.Duration("Duration 1.5 hr"), ShouldEqual, 90.0)
			So(*extract.Duration("Elapsed 90 sec"), ShouldEqual, 2.0)
		})

		Convey("When a clock part is missing", func() {
			So(extract.Duration("Duration 1::30 min"), ShouldBeNil)
		})

		Convey("When there is no unit", func() {
			So(extract.Duration("Duration 45"), ShouldBeNil)
		})
	})
}

func TestExtractCalories(t *testing.T) {
	Convey("Given calorie text", t, func() {
		Convey("When thousands are separated", func() {
			c := extract.Calories("calories 1,234")
			So(c, ShouldNotBeNil)
			So(*c, ShouldEqual, 1234)
			So(*extract.Calories("Energy: 1.050 kcal"), ShouldEqual, 1050)
		})

		Convey("When only separators are found", func() {
			So(extract.Calories("Calories: ."), ShouldBeNil)
		})
	})
}

func TestExtractPace(t *testing.T) {
	Convey("Given pace text", t, func() {
		Convey("When per kilometer", func() {
			p := extract.Pace("pace 5:30 /km")
			So(p, ShouldNotBeNil)
			So(*p, ShouldEqual, 5.5)
			So(*extract.Pace("Avg Pace 6 min/km"), ShouldEqual, 6.0)
		})

		Convey("When per mile", func() {
			So(*extract.Pace("pace 5:30 /mile"), ShouldAlmostEqual, 5.5/1.60934, 1e-9)
			So(*extract.Pace("Average pace 8:00 min/mile"), ShouldAlmostEqual, 4.971, 0.001)
		})

		Convey("When there is no unit", func() {
			So(extract.Pace("pace 5:30"), ShouldBeNil)
		})
	})
}

func TestExtractDate(t *testing.T) {
	Convey("Given date text", t, func() {
		Convey("When month-first", func() {
			d, ok := extract.Date("Date: 05/01/2023")
			So(ok, ShouldBeTrue)
			So(d, ShouldEqual, "2023-05-01T00:00:00.000Z")
		})

		Convey("When year-first", func() {
			d, ok := extract.Date("Recorded on 2024-03-15")
			So(ok, ShouldBeTrue)
			So(d, ShouldEqual, "2024-03-15T00:00:00.000Z")
		})

		Convey("When the year has two digits", func() {
			d, ok := extract.Date("date 5-1-23")
			So(ok, ShouldBeTrue)
			So(d, ShouldEqual, "2023-05-01T00:00:00.000Z")
		})

		Convey("When only a day-first reading is valid", func() {
			d, ok := extract.Date("Date 25/12/2023")
			So(ok, ShouldBeTrue)
			So(d, ShouldEqual, "2023-12-25T00:00:00.000Z")
		})

		Convey("When the date is impossible", func() {
			_, ok := extract.Date("Date 13/13/2023")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestExtract(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	ex := extract.New(extract.WithClock(func() time.Time { return fixed }))

	Convey("Given a full workout screenshot", t, func() {
		text := "Morning Run\nDistance: 5.2 km\nDuration: 28:30 min\nCalories: 412\nAvg Pace: 5:29 /km\nDate: 2024-03-15"

		Convey("When extracted", func() {
			got := ex.Extract(text, model.SportRunning, 92.5)

			Convey("Then every field is populated", func() {
				So(*got.Type, ShouldEqual, model.SportRunning)
				So(*got.Distance, ShouldEqual, 5.2)
				So(*got.Duration, ShouldEqual, 29.0)
				So(*got.Calories, ShouldEqual, 412)
				So(*got.Pace, ShouldAlmostEqual, 5+29.0/60, 1e-9)
				So(*got.Date, ShouldEqual, "2024-03-15T00:00:00.000Z")
				So(got.DateInferred, ShouldBeFalse)
				So(got.Confidence, ShouldEqual, 92.5)
				So(got.Fields(), ShouldHaveLength, 6)
			})

			Convey("Then extracting again yields the same record", func() {
				So(ex.Extract(text, model.SportRunning, 92.5), ShouldResemble, got)
			})
		})
	})

	Convey("Given text without a date", t, func() {
		Convey("When extracted with a fixed clock", func() {
			got := ex.Extract("Distance 5 km", model.SportSwimming, 50)

			Convey("Then the date is the clock time and marked inferred", func() {
				So(*got.Date, ShouldEqual, "2025-06-01T12:30:00.000Z")
				So(got.DateInferred, ShouldBeTrue)
				So(*got.Type, ShouldEqual, model.SportSwimming)
			})
		})

		Convey("When extracted with the wall clock", func() {
			before := time.Now().Add(-time.Second)
			got := extract.Extract("nothing useful here", model.SportGym, 10)
			parsed, err := time.Parse(time.RFC3339, *got.Date)

			Convey("Then the date is within seconds of now", func() {
				So(err, ShouldBeNil)
				So(parsed, ShouldHappenOnOrBetween, before, time.Now().Add(time.Second))
				So(got.Distance, ShouldBeNil)
				So(got.Duration, ShouldBeNil)
				So(got.Calories, ShouldBeNil)
				So(got.Pace, ShouldBeNil)
			})
		})
	})

	Convey("Given a matched but unparseable date", t, func() {
		got := ex.Extract("Date 13/13/2023", model.SportTennis, 70)

		Convey("Then the clock fallback is used", func() {
			So(*got.Date, ShouldEqual, "2025-06-01T12:30:00.000Z")
			So(got.DateInferred, ShouldBeTrue)
		})
	})

	Convey("Given full-width digits from the recognizer", t, func() {
		got := ex.Extract("Distance ５ km", model.SportRunning, 60)

		Convey("Then they are read as ASCII digits", func() {
			So(got.Distance, ShouldNotBeNil)
			So(*got.Distance, ShouldEqual, 5.0)
		})
	})

	Convey("Given confidence outside 0-100", t, func() {
		got := ex.Extract("", model.SportOther, -3)

		Convey("Then it is passed through", func() {
			So(got.Confidence, ShouldEqual, -3.0)
		})
	})

	Convey("Given no default type", t, func() {
		got := ex.Extract("Distance 5 km", "", 10)

		Convey("Then type is absent from the JSON form", func() {
			So(got.Type, ShouldBeNil)
			raw, err := json.Marshal(got)
			So(err, ShouldBeNil)
			So(string(raw), ShouldNotContainSubstring, `"type"`)
			So(string(raw), ShouldNotContainSubstring, `"calories"`)
			So(string(raw), ShouldContainSubstring, `"distance":5`)
		})
	})
}
