package source

import (
	"fmt"
	"time"
)

// built-in sample datasets used when a live source is unavailable, so the
// pipeline always has something to analyze

type mockReview struct {
	rating  int
	text    string
	daysAgo int
}

var mockPlayReviews = []mockReview{
	{5, "Absolutely love this app! Super smooth and the new UI is gorgeous. Best messaging app out there.", 1},
	{1, "App crashes every time I try to open a video. Completely broken since the last update!", 1},
	{2, "Battery drain is insane. Phone goes from 100% to 20% in 2 hours with just this app running.", 2},
	{4, "Good app overall but please add dark mode support. My eyes hurt at night.", 2},
	{1, "Cannot send photos anymore. Error code 401 every single time. Please fix this bug ASAP!", 3},
	{5, "Works perfectly on my new phone. Fast, reliable, love the status feature.", 3},
	{3, "Average app. Too many ads now and it feels slow compared to 6 months ago.", 4},
	{1, "Login keeps failing. I've reinstalled 5 times and nothing works. Terrible support.", 4},
	{5, "Just what I needed. Clean interface and great call quality even on 3G.", 5},
	{2, "Notifications are completely broken. I miss messages for hours. Unacceptable.", 5},
	{4, "Please add the option to schedule messages. That feature would be a game-changer!", 6},
	{1, "Data usage is out of control. Using 2GB per day doing nothing. Bug report filed.", 6},
	{5, "The group call feature is amazing. Used it for our team meeting and it was flawless.", 7},
	{3, "Decent but the search function is terrible. Can't find old messages easily.", 7},
	{2, "Since the update, stickers and GIFs don't load. Please roll back or fix quickly.", 8},
	{5, "Best update in years! The new reactions are so fun and the speed improvement is noticeable.", 8},
	{1, "Voice messages suddenly won't play. This is a critical bug that needs an immediate fix.", 9},
	{4, "Would love to see multi-device support improved. Sometimes messages don't sync.", 9},
	{5, "Never had a single crash in 2 years. Rock solid and privacy focused. Highly recommend.", 10},
	{1, "App freezes on startup after latest update. Pixel 6 user. PLEASE FIX.", 10},
}

var mockAppStoreReviews = []mockReview{
	{5, "Five stars without hesitation. This app just works. Period.", 1},
	{1, "Constant crashes on iOS 17. Apple should remove this from the store until it's fixed.", 2},
	{4, "Really solid messaging app. Would be perfect with iMessage-style reactions.", 2},
	{2, "Battery consumption has doubled after the latest update. Please investigate.", 3},
	{5, "Great privacy features. Love that everything is end-to-end encrypted.", 3},
	{1, "Can't log in since I switched iPhones. Verification code never arrives. Stuck for a week.", 4},
	{3, "It works but feels dated compared to Telegram. Needs a serious UI refresh.", 4},
	{5, "Video calling quality is exceptional. Better than FaceTime in my experience.", 5},
	{2, "Push notifications are unreliable. Half the time I don't know I have messages.", 5},
	{4, "Please add ability to transfer chat history between iOS and Android. Desperately needed!", 6},
	{1, "Photos disappear from chats randomly. Lost important photos. This is a serious data-loss bug!", 6},
	{5, "Flawless experience on my iPhone 15 Pro. Speed is incredible.", 7},
	{1, "My account was hacked. The 2FA did nothing. I'm furious and terrified.", 8},
	{5, "Update fixed all my previous issues. Team clearly listens to feedback!", 9},
	{2, "Takes forever to load on older iPhones. Optimization needed badly.", 9},
	{4, "Feature request: please add message scheduling like Telegram has.", 11},
}

var mockCSVReviews = []mockReview{
	{4, "The interface is clean. Would love better search functionality.", 1},
	{5, "Excellent tool! Has completely replaced email for our team.", 1},
	{2, "Integration with third-party apps is clunky and unreliable.", 2},
	{1, "Data export feature is completely broken. Can't get my data out.", 2},
	{5, "Best product we've used in this category. Support team is amazing.", 3},
	{3, "Works fine but the pricing jumped 40% with no warning. Not happy.", 3},
	{1, "Critical bug: reports generate incorrect numbers. This cost us money.", 4},
	{4, "Would love dark mode and custom dashboards. Great foundation though.", 4},
	{5, "The onboarding flow is exceptional. Had our team up in 30 minutes.", 5},
	{2, "Performance degrades badly when exporting large datasets.", 5},
	{3, "Average experience. Nothing special but nothing terrible either.", 6},
	{5, "Customer support resolved my issue within 1 hour. Impressed!", 6},
	{1, "Single sign-on is broken for Google Workspace accounts since last week.", 7},
	{4, "Feature request: please add API webhooks for real-time data sync.", 7},
	{5, "ROI has been outstanding. Saved our team 15 hours per week.", 8},
}

// MockGooglePlay returns the built-in Play Store sample
func MockGooglePlay() []Item {
	now := time.Now()
	items := make([]Item, 0, len(mockPlayReviews))
	for i, r := range mockPlayReviews {
		items = append(items, GooglePlayItem{
			ReviewID: fmt.Sprintf("gp_%d", i),
			Content:  r.text,
			Score:    r.rating,
			At:       now.AddDate(0, 0, -r.daysAgo),
			UserName: fmt.Sprintf("User_%03d", 100+i),
			Version:  "2.24.0",
		})
	}
	return items
}

// MockAppStore returns the built-in App Store sample
func MockAppStore() []Item {
	now := time.Now()
	items := make([]Item, 0, len(mockAppStoreReviews))
	for i, r := range mockAppStoreReviews {
		items = append(items, AppStoreEntry{
			ID:      fmt.Sprintf("as_%d", i),
			Content: r.text,
			Rating:  fmt.Sprintf("%d", r.rating),
			Updated: now.AddDate(0, 0, -r.daysAgo).Format(time.RFC3339),
			Author:  fmt.Sprintf("iUser_%03d", 100+i),
			Version: "23.1.0",
		})
	}
	return items
}

// MockCSV returns the built-in survey sample
func MockCSV() []Item {
	now := time.Now()
	items := make([]Item, 0, len(mockCSVReviews))
	for i, r := range mockCSVReviews {
		items = append(items, CSVRow{
			ID:     fmt.Sprintf("csv_%d", i),
			Text:   r.text,
			Rating: fmt.Sprintf("%d", r.rating),
			Date:   now.AddDate(0, 0, -r.daysAgo).Format("2006-01-02"),
			Author: fmt.Sprintf("Respondent_%d", i+1),
		})
	}
	return items
}
