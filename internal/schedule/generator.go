// Package schedule turns task-creation parameters into a set of future
// check-in prompt requests. Planning is a pure function of the task, the
// clock, and the random source, so tests can pin all three.
package schedule

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jyang234/mull/internal/core"
)

// Fixed prompt parameters for every generated request
const (
	PromptPriority       = 0.7
	PromptCognitiveState = "any"
	PromptExpiry         = 24 * time.Hour
)

// bucketAnchor holds the local wall-clock anchor for a time-of-day bucket.
type bucketAnchor struct {
	hour   int
	minute int
}

var anchors = map[string]bucketAnchor{
	core.TimeMorning:   {9, 0},
	core.TimeAfternoon: {14, 0},
	core.TimeEvening:   {19, 0},
	core.TimeLateNight: {22, 0},
}

// Question template pools keyed by time-of-day. Each template takes the
// task title, the 1-based day index, and the total duration in days.
var questionPools = map[string][]string{
	core.TimeMorning: {
		"Fresh start on day %[2]d of %[3]d: what stands out about %[1]q this morning?",
		"Before the day fills up, what is your clearest thought on %[1]q? (day %[2]d of %[3]d)",
		"Day %[2]d of %[3]d. If you had to decide on %[1]q right now, which way would you lean?",
		"What did sleeping on %[1]q change, if anything? You're on day %[2]d of %[3]d.",
	},
	core.TimeAfternoon: {
		"Midday check on %[1]q, day %[2]d of %[3]d: has anything from today's events shifted your view?",
		"Day %[2]d of %[3]d on %[1]q. What practical constraint matters most right now?",
		"Take a step back from %[1]q for a moment. What would you tell a friend facing the same question? (day %[2]d of %[3]d)",
		"What's one assumption about %[1]q you could test this afternoon? Day %[2]d of %[3]d.",
	},
	core.TimeEvening: {
		"Winding down day %[2]d of %[3]d: how does %[1]q look now compared to this morning?",
		"With the day behind you, what feels most true about %[1]q? (day %[2]d of %[3]d)",
		"Day %[2]d of %[3]d. What did today teach you about %[1]q that you didn't expect?",
		"If %[1]q were settled tonight, how would you feel about it? You're on day %[2]d of %[3]d.",
	},
	core.TimeLateNight: {
		"Late thoughts on %[1]q, day %[2]d of %[3]d: what surfaces when the noise dies down?",
		"Day %[2]d of %[3]d. Is there a part of %[1]q you've been avoiding thinking about?",
		"Before you sleep on it again: what's the quietest, most honest take on %[1]q? (day %[2]d of %[3]d)",
		"No one's watching at this hour. What do you actually want from %[1]q? Day %[2]d of %[3]d.",
	},
}

// Generator plans check-in prompt requests for newly created tasks.
type Generator struct {
	now  func() time.Time
	rand *rand.Rand
}

// NewGenerator creates a generator using the wall clock and an
// entropy-seeded random source.
func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now, time.Now().UnixNano())
}

// NewGeneratorWithSeed creates a generator with a pinned clock and seed
// so output is deterministic (for testing).
func NewGeneratorWithSeed(now func() time.Time, seed int64) *Generator {
	return &Generator{
		now:  now,
		rand: rand.New(rand.NewSource(seed)),
	}
}

// Plan computes one prompt request per future (day, bucket) slot of the
// task. Slots whose anchor instant is strictly before now are dropped, so
// a same-day bucket whose window already passed is skipped. The result
// can be empty.
func (g *Generator) Plan(task *core.Task) []core.PromptRequest {
	now := g.now()
	var prompts []core.PromptRequest

	for day := 0; day < task.DurationDays; day++ {
		for _, bucket := range task.CheckInTimes {
			anchor, ok := anchors[bucket]
			if !ok {
				continue
			}

			slot := time.Date(now.Year(), now.Month(), now.Day()+day,
				anchor.hour, anchor.minute, 0, 0, now.Location())
			if slot.Before(now) {
				continue
			}

			pool := questionPools[bucket]
			template := pool[g.rand.Intn(len(pool))]

			prompts = append(prompts, core.PromptRequest{
				UserID:         task.UserID,
				TaskID:         task.ID,
				Question:       fmt.Sprintf(template, task.Title, day+1, task.DurationDays),
				Context:        fmt.Sprintf("Check-in for day %d of %d (%s)", day+1, task.DurationDays, bucket),
				TimeOfDay:      bucket,
				CognitiveState: PromptCognitiveState,
				Priority:       PromptPriority,
				ScheduledFor:   slot,
				ExpiresAt:      slot.Add(PromptExpiry),
			})
		}
	}

	return prompts
}
