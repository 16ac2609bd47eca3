package source

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Generator produces deterministic synthetic feedback for demos and trend
// testing. The same seed always yields the same records. Generated datasets
// carry a scripted sentiment dip between days 20 and 40 before now and a
// recovery over the most recent 10 days, so the trend engine has a known
// shape to surface.
type Generator struct {
	seed    int64
	appName string
	now     func() time.Time
}

// NewGenerator creates a generator with a fixed seed
func NewGenerator(seed int64, appName string) *Generator {
	if appName == "" {
		appName = "MyApp"
	}
	return &Generator{seed: seed, appName: appName, now: time.Now}
}

type reviewKind int

const (
	kindPositive reviewKind = iota
	kindNeutral
	kindNegative
	kindFeature
)

var positiveTemplates = []string{
	"Love %[1]s! The %[2]s update is absolutely fantastic. Runs super smoothly on my device.",
	"%[1]s just keeps getting better. The new %[2]s is exactly what I needed.",
	"Best app in this category by far. %[2]s works flawlessly. 10/10 would recommend.",
	"Amazing experience with %[1]s. %[2]s has saved me so much time every day.",
	"The %[2]s feature is brilliant. Clean UI, fast performance, zero crashes.",
	"Five stars, %[1]s is reliable, fast, and the support team is incredibly responsive.",
	"After trying several competitors, %[1]s is the clear winner. %[2]s seals the deal.",
	"Fantastic update! %[2]s is smooth, intuitive, and exactly what power users needed.",
	"Solid 5 stars. %[1]s has never let me down in 2 years. Keep up the great work.",
	"Superb app. The team clearly listens to feedback. %[2]s was my top request!",
}

var neutralTemplates = []string{
	"%[1]s is okay. %[2]s works but could be more polished. Room for improvement.",
	"Decent app overall. Nothing extraordinary but gets the job done. %[2]s is average.",
	"It does what it says. %[2]s is fine. I wish there were more customization options.",
	"Not bad, not great. %[2]s occasionally lags but recovers. Needs more optimization.",
	"Middle-of-the-road experience. %[2]s works most of the time. Average rating fits.",
	"Acceptable app. Used daily but I wouldn't say I love it. %[2]s needs work.",
	"Works for basic use. Power users will find %[2]s limiting. Solid foundation though.",
}

var negativeTemplates = []string{
	"%[1]s keeps crashing every time I try to use %[2]s. This is a critical bug!",
	"Terrible update. %[2]s is completely broken since version %[3]s. Fix ASAP!",
	"One star. %[1]s used to be great but %[2]s has been broken for 3 weeks now.",
	"Unacceptable performance. %[2]s makes my battery drain from 100%% to 20%% in an hour.",
	"%[1]s crashes on startup after the latest update. %[2]s won't even open. Useless!",
	"I've lost data twice because of the %[2]s bug. This is unacceptable for a paid app.",
	"Constant error code 500 when trying to access %[2]s. Support hasn't replied in days.",
	"Login keeps failing. I've reinstalled %[1]s 4 times and %[2]s still errors out.",
	"The %[2]s lag is unbearable. What happened? It was perfect 2 months ago!",
	"Huge security concern: %[2]s shows other users' private data. Please patch immediately!",
}

var featureTemplates = []string{
	"Please add dark mode to %[2]s! My eyes hurt using the app at night. Would give 5 stars.",
	"Feature request: allow scheduling in %[2]s. Every competitor has this. Please add it!",
	"Would love to see Slack integration for %[2]s. Would save our team so much time.",
	"Please let us export %[2]s data to CSV and Excel. Critical for our reporting.",
	"Needs a proper API for %[2]s so we can automate workflows. Developers are begging!",
	"Offline mode for %[2]s would be incredible. No internet means currently useless.",
	"Please add batch operations in %[2]s. Doing things one at a time is painfully slow.",
}

var featureNames = []string{
	"dashboard", "notifications", "search", "sync", "export", "payments",
	"messaging", "analytics", "settings", "profile", "calendar", "reports",
}

// Generate produces n items spread over the past daysSpan days
func (g *Generator) Generate(n, daysSpan int) []Item {
	rnd := rand.New(rand.NewSource(g.seed)) //nolint:gosec // deterministic data, not crypto
	now := g.now()

	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		kind := pickKind(rnd)
		dayOffset := rnd.Intn(daysSpan + 1)

		// scripted trend: bad release window in days 20-40, recovery in the
		// most recent 10 days
		if dayOffset >= 20 && dayOffset <= 40 {
			if rnd.Float64() < 0.4 {
				kind = kindNegative
			}
		} else if dayOffset < 10 && kind == kindNegative && rnd.Float64() < 0.3 {
			kind = kindNeutral
		}

		feature := featureNames[rnd.Intn(len(featureNames))]
		version := fmt.Sprintf("2.%d.%d", 18+rnd.Intn(8), rnd.Intn(10))

		var text string
		var rating int
		switch kind {
		case kindPositive:
			text = fmt.Sprintf(positiveTemplates[rnd.Intn(len(positiveTemplates))], g.appName, feature, version)
			rating = 4 + weighted(rnd, 30, 70) // 4 or 5
		case kindNeutral:
			text = fmt.Sprintf(neutralTemplates[rnd.Intn(len(neutralTemplates))], g.appName, feature, version)
			rating = 2 + weighted3(rnd, 20, 60, 20) // 2, 3 or 4
		case kindNegative:
			text = fmt.Sprintf(negativeTemplates[rnd.Intn(len(negativeTemplates))], g.appName, feature, version)
			rating = 1 + weighted(rnd, 70, 30) // 1 or 2
		case kindFeature:
			text = fmt.Sprintf(featureTemplates[rnd.Intn(len(featureTemplates))], g.appName, feature, version)
			rating = 3 + weighted(rnd, 40, 60) // 3 or 4
		}

		items = append(items, SyntheticItem{
			ID:      fmt.Sprintf("synth_%d", i),
			Text:    strings.TrimSpace(text),
			Rating:  rating,
			Date:    now.AddDate(0, 0, -dayOffset),
			Author:  fmt.Sprintf("User_%04d", rnd.Intn(10000)),
			Version: version,
		})
	}
	return items
}

// pickKind draws the base sentiment mix: 40% positive, 25% neutral,
// 25% negative, 10% feature request
func pickKind(rnd *rand.Rand) reviewKind {
	r := rnd.Float64()
	switch {
	case r < 0.40:
		return kindPositive
	case r < 0.65:
		return kindNeutral
	case r < 0.90:
		return kindNegative
	default:
		return kindFeature
	}
}

// weighted returns 0 or 1 with the given percent weights
func weighted(rnd *rand.Rand, w0, w1 int) int {
	if rnd.Intn(w0+w1) < w0 {
		return 0
	}
	return 1
}

// weighted3 returns 0, 1 or 2 with the given percent weights
func weighted3(rnd *rand.Rand, w0, w1, w2 int) int {
	r := rnd.Intn(w0 + w1 + w2)
	switch {
	case r < w0:
		return 0
	case r < w0+w1:
		return 1
	default:
		return 2
	}
}
