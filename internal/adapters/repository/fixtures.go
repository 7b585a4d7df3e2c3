package repository

import (
	"time"

	"github.com/okian/sportid/internal/domain/model"
)

// Fixtures is the demo data a fresh service starts with.
type Fixtures struct {
	Profiles   []model.SportProfile
	Posts      []model.Post
	Challenges []model.Challenge
	Items      []model.MarketplaceItem
	// Joined lists, per challenge ID, the athletes already signed up.
	Joined map[string][]string
}

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

// DefaultFixtures returns the demo data. Challenge deadlines are relative to now.
func DefaultFixtures(now time.Time) Fixtures {
	alex := model.User{ID: "1", Name: "Alex Smith", Avatar: "/avatars/user-alex.png", WalletAddress: "0x1234...5678"}
	jessica := model.User{ID: "2", Name: "Jessica Taylor", Avatar: "/avatars/user-jessica.png", WalletAddress: "0xabcd...efgh"}
	michael := model.User{ID: "3", Name: "Michael Brown", Avatar: "/avatars/user-michael.png"}

	activities := []model.ActivityRecord{
		{ID: "act1", Type: model.SportRunning, Date: ts("2023-05-01T08:30:00Z"), Duration: 45, Distance: fptr(5.2), Verified: true},
		{ID: "act2", Type: model.SportBasketball, Date: ts("2023-04-30T17:15:00Z"), Duration: 60, Verified: true},
		{ID: "act3", Type: model.SportGym, Date: ts("2023-04-29T14:00:00Z"), Duration: 75, Verified: true},
		{ID: "act4", Type: model.SportRunning, Date: ts("2023-04-28T07:45:00Z"), Duration: 30, Distance: fptr(3.1), Verified: true},
		{ID: "act5", Type: model.SportSoccer, Date: ts("2023-04-27T18:30:00Z"), Duration: 90, Verified: true},
	}

	titles := []model.TitleNFT{
		{ID: "nft1", Name: "Marathon Finisher", Description: "Completed a full marathon distance", Image: "/badges/marathon.png", DateEarned: ts("2023-03-15T10:30:00Z"), Rarity: model.RarityEpic},
		{ID: "nft2", Name: "100-Day Streak", Description: "Completed activities for 100 consecutive days", Image: "/badges/streak100.png", DateEarned: ts("2023-02-01T08:15:00Z"), Rarity: model.RarityLegendary},
		{ID: "nft3", Name: "Basketball All-Star", Description: "Played 50 basketball games", Image: "/badges/basketball.png", DateEarned: ts("2023-01-10T19:45:00Z"), Rarity: model.RarityRare},
	}

	return Fixtures{
		Profiles: []model.SportProfile{
			{User: alex, TotalActivities: 127, Streak: 42, Titles: titles, RecentActivities: activities, Level: 24, XP: 12400, XPToNextLevel: 15000},
			{User: jessica, TotalActivities: 88, Streak: 12, XP: 9800},
			{User: michael, TotalActivities: 31, Streak: 3, XP: 4300},
		},
		Posts: []model.Post{
			{
				ID: "post1", User: alex, Content: "Just crushed a 10K run! Personal best time 💪",
				Images:       []string{"/posts/running.png"},
				ActivityData: &model.PostActivity{Type: model.SportRunning, Duration: fptr(48), Distance: fptr(10), Calories: iptr(520)},
				Likes:        24, Comments: 3, Timestamp: ts("2023-05-02T09:15:00Z"), Verified: true,
			},
			{
				ID: "post2", User: jessica, Content: "Great basketball session with the team today!",
				Images: []string{"/posts/basketball.png"}, Video: "/posts/basketball-clip.mp4",
				ActivityData: &model.PostActivity{Type: model.SportBasketball, Duration: fptr(75), Calories: iptr(650)},
				Likes:        41, Comments: 7, Timestamp: ts("2023-05-01T18:30:00Z"), Verified: true,
			},
			{
				ID: "post3", User: michael, Content: "Morning yoga to start the day right ✨",
				ActivityData: &model.PostActivity{Type: model.SportOther, Duration: fptr(30), Calories: iptr(120)},
				Likes:        18, Comments: 2, Timestamp: ts("2023-05-01T06:45:00Z"),
			},
		},
		Challenges: []model.Challenge{
			{
				ID: "chl1", Title: "5K Run Challenge", Description: "Complete a 5K run today", Duration: 30,
				SportType: model.SportRunning, Reward: model.Reward{Tokens: 50, XP: 200, Badge: "/badges/5k-run.png"},
				Participants: 237, Deadline: now.Add(8 * time.Hour),
			},
			{
				ID: "chl2", Title: "Full Body Workout", Description: "Complete a 30-minute strength training session", Duration: 30,
				SportType: model.SportGym, Reward: model.Reward{Tokens: 30, XP: 150},
				Participants: 124, Deadline: now.Add(14 * time.Hour),
			},
			{
				ID: "chl3", Title: "Basketball Shootout", Description: "Play a game of basketball with friends", Duration: 60,
				SportType: model.SportBasketball, Reward: model.Reward{Tokens: 75, XP: 250, Badge: "/badges/basketball-master.png"},
				Participants: 89, Deadline: now.Add(10 * time.Hour),
			},
		},
		Items: []model.MarketplaceItem{
			{
				ID: "item1", Name: "Ultra Runner Title", Description: "Earned by completing 10 marathons", Image: "/marketplace/ultra-runner.png",
				Price: model.Price{Amount: 500, Currency: model.CurrencyToken}, Type: model.ItemTitle, Rarity: model.RarityLegendary,
				SportType: string(model.SportRunning), Soulbound: true,
			},
			{
				ID: "item2", Name: "Nike Runner Pack", Description: "Special running challenge sponsored by Nike", Image: "/marketplace/nike-runner.png",
				Price: model.Price{Amount: 200, Currency: model.CurrencyPoints}, Type: model.ItemChallenge, Rarity: model.RarityRare,
				SportType: string(model.SportRunning), Sponsored: &model.Sponsor{Brand: "Nike", Logo: "/brands/nike-logo.png"},
			},
			{
				ID: "item3", Name: "Gym Warrior Badge", Description: "Complete 50 gym workouts to earn", Image: "/marketplace/gym-warrior.png",
				Price: model.Price{Amount: 0.05, Currency: model.CurrencyETH}, Type: model.ItemBadge, Rarity: model.RarityEpic,
				SportType: string(model.SportGym), Soulbound: true,
			},
			{
				ID: "item4", Name: "Under Armour Basketball Kit", Description: "Limited edition digital gear from Under Armour", Image: "/marketplace/ua-basketball.png",
				Price: model.Price{Amount: 75, Currency: model.CurrencyUSDC}, Type: model.ItemGear, Rarity: model.RarityRare,
				SportType: string(model.SportBasketball), Sponsored: &model.Sponsor{Brand: "Under Armour", Logo: "/brands/ua-logo.png"},
			},
		},
		Joined: map[string][]string{"chl2": {alex.ID}},
	}
}
