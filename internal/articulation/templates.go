package articulation

import "rafiq/internal/types"

// Condition gates a template on context availability. A template with a
// non-empty condition is only eligible when the snapshot satisfies it, which
// guarantees its placeholders are resolvable.
type Condition string

const (
	// CondNone makes the template unconditional.
	CondNone Condition = ""

	// CondEventToday requires at least one named event in the snapshot.
	CondEventToday Condition = "event_today"

	// CondPrayerKnown requires at least one known prayer time.
	CondPrayerKnown Condition = "prayer_known"

	// CondEntityRef requires an extracted entity on the intent.
	CondEntityRef Condition = "entity_ref"

	// CondNameKnown requires a personalized session (user name set).
	CondNameKnown Condition = "name_known"
)

// Template is one row of the response bank: a tagged variant keyed by
// category, emotion and context condition. Text variants, actions and quick
// replies are static data resolved at selection time, never fetched.
//
// Placeholders available in variant text and action targets:
//
//	{name}         user name
//	{event}        today's first named event
//	{hijri}        display Hijri date
//	{prayer}       next prayer name (first known)
//	{prayer_time}  its time
//	{entity}       first extracted entity name
//	{entity_slug}  its navigation slug
type Template struct {
	Category types.IntentCategory
	Emotion  types.Emotion // EmotionNone = generic, matches any emotion
	Cond     Condition
	Variants []string
	Actions  []types.Action
	Quick    []string
}

// fallbackResponse is chain step (d): the universal apology. CategoryUnknown
// and any classifier/selection miss land here.
var fallbackResponse = Template{
	Category: types.CategoryUnknown,
	Variants: []string{
		"I apologize, I did not quite understand that. Could you rephrase it for me?",
		"I'm sorry, that one escaped me. Could you put it another way?",
	},
	Quick: []string{"Show me today's prayer times", "I need guidance", "Recite a dua with me"},
}

// DefaultTemplates is the response bank. Order matters only among templates
// of equal specificity: the earlier entry wins, so the bank is deterministic.
var DefaultTemplates = []Template{
	// --- PRAYER REQUEST ---
	{
		Category: types.CategoryPrayerRequest, Emotion: types.EmotionGrieving, Cond: CondEventToday,
		Variants: []string{
			"May your mourning be accepted. On this day of {event}, Ziyarat Ashura brings solace to a grieving heart. Shall we recite it together?",
		},
		Actions: []types.Action{{Label: "Open Ziyarat Ashura", Type: types.ActionNavigate, Target: "/ziyarat/ziyarat-ashura"}},
		Quick:   []string{"Recite Ziyarat Ashura", "A dua for the departed"},
	},
	{
		Category: types.CategoryPrayerRequest, Emotion: types.EmotionGrieving,
		Variants: []string{
			"I am so sorry for your loss. Dua for the departed and Ziyarat Ashura are a balm in grief. Would you like to begin with one of them?",
		},
		Actions: []types.Action{
			{Label: "Open Ziyarat Ashura", Type: types.ActionNavigate, Target: "/ziyarat/ziyarat-ashura"},
			{Label: "Duas for the departed", Type: types.ActionNavigate, Target: "/duas/departed"},
		},
		Quick: []string{"Recite with me", "Tell me about Ziyarat Ashura"},
	},
	{
		Category: types.CategoryPrayerRequest, Emotion: types.EmotionDistressed,
		Variants: []string{
			"In hardship, Dua Kumayl and the ziyarat of Imam Hussain are a refuge. I can open either for you, or we can recite together right here.",
		},
		Actions: []types.Action{
			{Label: "Open Dua Kumayl", Type: types.ActionNavigate, Target: "/duas/dua-kumayl"},
			{Label: "Ziyarat library", Type: types.ActionNavigate, Target: "/ziyarat"},
		},
		Quick: []string{"Recite Dua Kumayl", "Which ziyarat for hardship?"},
	},
	{
		Category: types.CategoryPrayerRequest, Cond: CondEntityRef,
		Variants: []string{
			"{entity} is a beautiful choice. I can take you straight to it.",
			"Of course - {entity} it is. Opening it for you.",
		},
		Actions: []types.Action{{Label: "Open {entity}", Type: types.ActionNavigate, Target: "/ziyarat/{entity_slug}"}},
		Quick:   []string{"Read it with translation", "Play the audio"},
	},
	{
		Category: types.CategoryPrayerRequest,
		Variants: []string{
			"I would be honored to pray with you. The dua and ziyarat library has recitations for every need - shall I open it?",
			"Of course. Tell me what weighs on you, or browse the dua and ziyarat library with me.",
		},
		Actions: []types.Action{{Label: "Dua & Ziyarat library", Type: types.ActionNavigate, Target: "/ziyarat"}},
		Quick:   []string{"A dua for health", "A dua for rizq", "Ziyarat Ashura"},
	},

	// --- GUIDANCE SEEKING ---
	{
		Category: types.CategoryGuidance, Emotion: types.EmotionDistressed,
		Variants: []string{
			"I hear how heavy this is. In difficult times, prayer steadies the heart - many find strength in Dua Kumayl and in the ziyarat of Imam Hussain, who faced hardship with unshakable patience. Shall we start there?",
		},
		Actions: []types.Action{
			{Label: "Open ziyarat guidance", Type: types.ActionNavigate, Target: "/ziyarat"},
			{Label: "Open Dua Kumayl", Type: types.ActionNavigate, Target: "/duas/dua-kumayl"},
		},
		Quick: []string{"Recite with me now", "More duas for hardship"},
	},
	{
		Category: types.CategoryGuidance, Emotion: types.EmotionGrieving,
		Variants: []string{
			"Grief is a heavy road, and you do not walk it alone. The majalis and ziyarat of the Ahlul Bayt carry centuries of consolation. I can guide you to them whenever you are ready.",
		},
		Actions: []types.Action{{Label: "Ziyarat for the grieving", Type: types.ActionNavigate, Target: "/ziyarat"}},
		Quick:   []string{"A dua for the departed", "Tell me about patience"},
	},
	{
		Category: types.CategoryGuidance, Cond: CondEventToday,
		Variants: []string{
			"Today is {event} - a day whose lessons speak directly to questions like yours. Would you like a reading connected to it, or shall we talk it through?",
		},
		Actions: []types.Action{{Label: "Today's readings", Type: types.ActionNavigate, Target: "/calendar/today"}},
		Quick:   []string{"Talk it through", "Show the readings"},
	},
	{
		Category: types.CategoryGuidance,
		Variants: []string{
			"I'm listening. Tell me more about what you are facing, and I can point you to duas, ziyarat, or teachings that speak to it.",
			"Thank you for trusting me with this. Share as much as you wish, and we will find guidance together.",
		},
		Quick: []string{"I need a dua", "Teachings on patience", "Just listen"},
	},

	// --- CALENDAR QUERY ---
	{
		Category: types.CategoryCalendarQuery, Cond: CondEventToday,
		Variants: []string{
			"Today is {hijri}. We observe {event} today. I can show the full calendar or today's recommended acts.",
		},
		Actions: []types.Action{{Label: "Open calendar", Type: types.ActionNavigate, Target: "/calendar"}},
		Quick:   []string{"Today's recommended acts", "Prayer times"},
	},
	{
		Category: types.CategoryCalendarQuery, Cond: CondPrayerKnown,
		Variants: []string{
			"Today is {hijri}. The next prayer is {prayer} at {prayer_time}. Want the full timetable?",
		},
		Actions: []types.Action{{Label: "Full prayer timetable", Type: types.ActionNavigate, Target: "/prayer-times"}},
		Quick:   []string{"Full timetable", "Qibla direction"},
	},
	{
		Category: types.CategoryCalendarQuery,
		Variants: []string{
			"I don't have calendar data for your location just yet. Once it loads, I can give you dates, events and prayer times.",
		},
		Actions: []types.Action{{Label: "Open calendar", Type: types.ActionNavigate, Target: "/calendar"}},
	},

	// --- NAVIGATION ---
	{
		Category: types.CategoryNavigation, Cond: CondEntityRef,
		Variants: []string{"Taking you to {entity}."},
		Actions:  []types.Action{{Label: "Go to {entity}", Type: types.ActionNavigate, Target: "/ziyarat/{entity_slug}"}},
	},
	{
		Category: types.CategoryNavigation,
		Variants: []string{
			"Here are the places I can take you.",
		},
		Actions: []types.Action{
			{Label: "Calendar", Type: types.ActionNavigate, Target: "/calendar"},
			{Label: "Dua & Ziyarat library", Type: types.ActionNavigate, Target: "/ziyarat"},
			{Label: "Prayer times", Type: types.ActionNavigate, Target: "/prayer-times"},
		},
	},

	// --- EMOTIONAL DISCLOSURE ---
	{
		Category: types.CategoryEmotional, Emotion: types.EmotionGrieving,
		Variants: []string{
			"I'm deeply sorry. Loss leaves a silence nothing fills quickly. When you are ready, the duas for the departed and the ziyarat of Imam Hussain are here for you.",
		},
		Actions: []types.Action{{Label: "Duas for the departed", Type: types.ActionNavigate, Target: "/duas/departed"}},
		Quick:   []string{"Recite with me", "Just stay with me"},
	},
	{
		Category: types.CategoryEmotional, Emotion: types.EmotionDistressed,
		Variants: []string{
			"That sounds truly hard, and it is alright to feel this way. Would a calming dua help, or would you rather talk first?",
		},
		Actions: []types.Action{{Label: "Calming duas", Type: types.ActionNavigate, Target: "/duas/calm"}},
		Quick:   []string{"A calming dua", "Let's talk"},
	},
	{
		Category: types.CategoryEmotional, Emotion: types.EmotionJoyful,
		Variants: []string{
			"Alhamdulillah, that's wonderful to hear! A prayer of gratitude makes joy even sweeter - want one?",
		},
		Quick: []string{"A gratitude dua", "Share more good news"},
	},
	{
		Category: types.CategoryEmotional, Emotion: types.EmotionGrateful,
		Variants: []string{
			"Alhamdulillah. Gratitude is itself a form of worship. Shall I find you a dua of thanks to seal it?",
		},
		Quick: []string{"A dua of thanks"},
	},
	{
		Category: types.CategoryEmotional,
		Variants: []string{
			"Thank you for sharing that with me. I'm here, and we can sit with it together - through words, or through prayer.",
		},
		Quick: []string{"Find me a dua", "Let's talk"},
	},

	// --- SAVE REQUEST ---
	{
		Category: types.CategorySaveRequest,
		Variants: []string{
			"Saving that answer to your collection.",
		},
		Actions: []types.Action{{Label: "View saved answers", Type: types.ActionNavigate, Target: "/saved"}},
	},

	// --- SMALL TALK ---
	{
		Category: types.CategorySmallTalk, Cond: CondNameKnown,
		Variants: []string{
			"Wa alaykum assalam, {name}! How can I serve you today?",
			"Salam, {name}! It's good to see you. What shall we do together today?",
		},
		Quick: []string{"Today's prayer times", "What's today's occasion?", "Recite a dua"},
	},
	{
		Category: types.CategorySmallTalk,
		Variants: []string{
			"Wa alaykum assalam! I'm your companion for duas, ziyarat, the Islamic calendar and more. How can I help?",
			"Salam! Ask me about prayer times, today's occasion, or let's recite together.",
		},
		Quick: []string{"Today's prayer times", "What's today's occasion?", "Recite a dua"},
	},
}
