package wallet_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sportid/internal/domain/wallet"
	"github.com/okian/sportid/pkg/logger"
)

func TestSession(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()
	fixed := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	Convey("Given a registry", t, func() {
		reg := wallet.NewRegistry(wallet.WithClock(func() time.Time { return fixed }))
		s, err := reg.Session("athlete-1")
		So(err, ShouldBeNil)

		Convey("When nothing is connected", func() {
			Convey("Then every operation is rejected", func() {
				So(errors.Is(s.ClaimTitle(ctx, "title1"), wallet.ErrNotConnected), ShouldBeTrue)
				So(errors.Is(s.JoinChallenge(ctx, "chl1"), wallet.ErrNotConnected), ShouldBeTrue)
				So(errors.Is(s.VerifyActivity(ctx, "sub-1"), wallet.ErrNotConnected), ShouldBeTrue)
				So(errors.Is(s.PurchaseItem(ctx, "item1"), wallet.ErrNotConnected), ShouldBeTrue)
				So(s.Status().Connected, ShouldBeFalse)
			})
		})

		Convey("When connected without an address", func() {
			st, err := s.Connect(ctx, "")

			Convey("Then a mock address is generated", func() {
				So(err, ShouldBeNil)
				So(st.Connected, ShouldBeTrue)
				So(st.Address, ShouldStartWith, "0x")
				So(len(st.Address), ShouldEqual, 42)
				So(*st.ConnectedAt, ShouldEqual, fixed)
				So(reg.Connected(), ShouldEqual, 1)
			})

			Convey("Then operations succeed", func() {
				So(s.ClaimTitle(ctx, "title1"), ShouldBeNil)
				So(s.JoinChallenge(ctx, "chl1"), ShouldBeNil)
				So(s.VerifyActivity(ctx, "sub-1"), ShouldBeNil)
				So(s.PurchaseItem(ctx, "item1"), ShouldBeNil)
			})

			Convey("And then disconnected", func() {
				st := s.Disconnect(ctx)
				s.Disconnect(ctx)

				Convey("Then operations are rejected again", func() {
					So(st.Connected, ShouldBeFalse)
					So(st.Address, ShouldBeEmpty)
					So(errors.Is(s.VerifyActivity(ctx, "sub-2"), wallet.ErrNotConnected), ShouldBeTrue)
				})
			})
		})

		Convey("When connected with a malformed address", func() {
			_, err := s.Connect(ctx, "0xnothex")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, wallet.ErrInvalidAddress), ShouldBeTrue)
				So(s.Connected(), ShouldBeFalse)
			})
		})

		Convey("When connected with an explicit address", func() {
			addr := "0x" + strings.Repeat("aB", 20)
			st, err := s.Connect(ctx, addr)

			Convey("Then it is kept", func() {
				So(err, ShouldBeNil)
				So(st.Address, ShouldEqual, addr)
			})
		})

		Convey("When the context is cancelled", func() {
			_, _ = s.Connect(ctx, "")
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			Convey("Then the operation fails with the context error", func() {
				So(errors.Is(s.PurchaseItem(cctx, "item1"), context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When sessions are requested", func() {
			again, _ := reg.Session("athlete-1")
			other, _ := reg.Session("athlete-2")
			_, errEmpty := reg.Session("  ")

			Convey("Then each athlete has one session", func() {
				So(again, ShouldPointTo, s)
				So(other, ShouldNotPointTo, s)
				So(errors.Is(errEmpty, wallet.ErrEmptyAthlete), ShouldBeTrue)
			})

			Convey("Then sessions are independent", func() {
				_, _ = other.Connect(ctx, "")
				So(other.Connected(), ShouldBeTrue)
				So(s.Connected(), ShouldBeFalse)
			})
		})
	})
}

func TestRegistryConcurrency(t *testing.T) {
	_ = logger.Init()

	Convey("Given many goroutines asking for the same athlete", t, func() {
		reg := wallet.NewRegistry()
		var wg sync.WaitGroup
		got := make([]*wallet.Session, 50)
		for i := range got {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				got[i], _ = reg.Session("athlete-x")
			}(i)
		}
		wg.Wait()

		Convey("Then they share one session", func() {
			for _, s := range got {
				So(s, ShouldPointTo, got[0])
			}
		})
	})
}
