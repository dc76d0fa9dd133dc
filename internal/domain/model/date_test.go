package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/opsboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDate(t *testing.T) {
	Convey("Given calendar dates", t, func() {
		jan5 := model.NewDate(2024, time.January, 5)
		jan6 := model.NewDate(2024, time.January, 6)

		Convey("When comparing them", func() {
			So(jan5.Before(jan6), ShouldBeTrue)
			So(jan6.After(jan5), ShouldBeTrue)
			So(jan5.Equal(model.NewDate(2024, 1, 5)), ShouldBeTrue)
		})

		Convey("When checking inclusive intervals", func() {
			So(jan5.Between(jan5, jan6), ShouldBeTrue)
			So(jan6.Between(jan5, jan6), ShouldBeTrue)
			So(jan6.Between(jan5, jan5), ShouldBeFalse)
		})

		Convey("When truncating a timestamp", func() {
			ts := time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC)
			So(model.DateOf(ts).Equal(jan5), ShouldBeTrue)
		})

		Convey("When parsing and formatting", func() {
			d, err := model.ParseDate("2024-01-05")
			So(err, ShouldBeNil)
			So(d.String(), ShouldEqual, "2024-01-05")
			_, err = model.ParseDate("05/01/2024")
			So(err, ShouldNotBeNil)
			So(model.Date{}.String(), ShouldEqual, "")
		})

		Convey("When encoding to JSON", func() {
			b, err := json.Marshal(struct {
				D model.Date `json:"d"`
				Z model.Date `json:"z"`
			}{D: jan5})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"d":"2024-01-05","z":null}`)

			var back struct {
				D model.Date `json:"d"`
				Z model.Date `json:"z"`
			}
			So(json.Unmarshal(b, &back), ShouldBeNil)
			So(back.D.Equal(jan5), ShouldBeTrue)
			So(back.Z.IsZero(), ShouldBeTrue)
		})
	})
}
