package perception

import "rafiq/internal/types"

// IntentRule is one row of the classification rule bank. The bank is the
// versioned source of truth for classification: a declarative, priority
// ordered table so it can be tested exhaustively and extended without
// touching control flow.
type IntentRule struct {
	Category types.IntentCategory `yaml:"category"`

	// Priority fixes the evaluation order. Higher evaluates first; for
	// equal matched spans the higher-priority rule wins. Navigation sits
	// on top: navigate intents are unambiguous and must never be shadowed
	// by a vaguer emotional or guidance match.
	Priority int `yaml:"priority"`

	// Confidence is the base confidence when the rule matches. Each
	// additional keyword/pattern hit adds a small bonus, capped below 1.
	Confidence float64 `yaml:"confidence"`

	// Keywords are lower-cased phrases matched as substrings.
	Keywords []string `yaml:"keywords"`

	// Patterns are regular expressions, compiled when the bank is built.
	Patterns []string `yaml:"patterns,omitempty"`

	// Negations suppress the rule when any of them matches.
	Negations []string `yaml:"negations,omitempty"`
}

// EmotionRule is one row of the emotion bank. The emotion pass runs
// independently of the category pass over the same text.
type EmotionRule struct {
	Emotion  types.Emotion `yaml:"emotion"`
	Priority int           `yaml:"priority"`
	Keywords []string      `yaml:"keywords"`
}

// EntityDef binds aliases of a named Imam or ritual to its navigation slug.
type EntityDef struct {
	Kind    types.EntityKind `yaml:"kind"`
	Name    string           `yaml:"name"`
	Slug    string           `yaml:"slug"`
	Aliases []string         `yaml:"aliases"`
}

// DefaultIntentRules defines the category bank in Go structures to avoid
// parsing fragility. Order in this slice is not significant; the classifier
// sorts by Priority descending when the bank is built.
var DefaultIntentRules = []IntentRule{
	{
		Category: types.CategoryNavigation, Priority: 100, Confidence: 0.85,
		Keywords: []string{"open the", "go to", "take me to", "navigate to", "show me the page", "where is the"},
		Patterns: []string{`(?i)\b(open|go to|take me to|navigate)\b.*\b(page|section|screen|tab|calendar|library|settings)\b`},
	},
	{
		Category: types.CategorySaveRequest, Priority: 95, Confidence: 0.85,
		Keywords: []string{"save this", "save that", "save your answer", "keep this answer", "bookmark this", "remember this answer"},
		Patterns: []string{`(?i)\b(save|keep|bookmark)\b.*\b(answer|response|this|that)\b`},
	},
	{
		Category: types.CategoryCalendarQuery, Priority: 90, Confidence: 0.8,
		Keywords: []string{"prayer time", "prayer times", "namaz time", "salat time", "what day is", "today's date", "hijri date", "islamic date", "what event", "which occasion", "when is", "calendar"},
		Patterns: []string{`(?i)\bwhen\s+(is|does)\b.*\b(ashura|arbaeen|eid|ramadan|muharram)\b`, `(?i)\bwhat\s+time\s+is\b.*\b(fajr|dhuhr|asr|maghrib|isha)\b`},
	},
	{
		Category: types.CategoryPrayerRequest, Priority: 80, Confidence: 0.75,
		Keywords: []string{"pray for", "pray with", "make dua", "a dua for", "need a prayer", "recite a dua", "recite ziyarat", "which dua", "i want to pray"},
		Patterns: []string{`(?i)\b(dua|du'a|supplication|ziyarat)\b`},
		Negations: []string{`(?i)\bwhat\s+time\b`},
	},
	{
		Category: types.CategoryGuidance, Priority: 70, Confidence: 0.7,
		Keywords: []string{"going through", "difficult time", "hard time", "struggling", "what should i do", "need guidance", "need advice", "guide me", "help me", "feel lost", "don't know what to do"},
	},
	{
		Category: types.CategoryEmotional, Priority: 60, Confidence: 0.65,
		Keywords: []string{"i feel", "i am sad", "i'm sad", "feeling down", "lonely", "heartbroken", "i miss", "depressed", "grieving", "can't stop crying"},
	},
	{
		Category: types.CategorySmallTalk, Priority: 50, Confidence: 0.6,
		Keywords: []string{"salam", "assalam", "hello", "thank you", "thanks", "who are you", "what can you do", "good morning", "good evening", "how are you"},
		Patterns: []string{`(?i)^\s*(hi|hey|salaam?)\b`},
	},
}

// DefaultEmotionRules defines the emotion bank. A user can ask a calendar
// question while sounding distressed; the emotion attaches to the intent
// regardless of which category matched.
var DefaultEmotionRules = []EmotionRule{
	{
		Emotion: types.EmotionGrieving, Priority: 50,
		Keywords: []string{"grief", "grieving", "passed away", "mourning", "lost my", "his death", "her death", "i miss him", "i miss her", "crying"},
	},
	{
		Emotion: types.EmotionDistressed, Priority: 40,
		Keywords: []string{"difficult", "struggling", "hard time", "anxious", "worried", "overwhelmed", "stressed", "afraid", "scared", "desperate", "hopeless"},
	},
	{
		Emotion: types.EmotionGrateful, Priority: 30,
		Keywords: []string{"grateful", "thankful", "alhamdulillah", "blessed", "thank you"},
	},
	{
		Emotion: types.EmotionHopeful, Priority: 20,
		Keywords: []string{"hope", "hopeful", "inshallah", "looking forward", "getting better"},
	},
	{
		Emotion: types.EmotionJoyful, Priority: 10,
		Keywords: []string{"happy", "so glad", "wonderful", "joy", "great news", "celebrating"},
	},
}

// DefaultEntities defines the entity bank: named Imams and rituals with the
// aliases users actually type, mapped to stable navigation slugs.
var DefaultEntities = []EntityDef{
	{Kind: types.EntityImam, Name: "Imam Ali", Slug: "imam-ali", Aliases: []string{"imam ali", "amirul momineen", "amir al-mu'minin"}},
	{Kind: types.EntityImam, Name: "Imam Hussain", Slug: "imam-hussain", Aliases: []string{"imam hussain", "imam husayn", "aba abdillah", "sayyid al-shuhada"}},
	{Kind: types.EntityImam, Name: "Imam Reza", Slug: "imam-reza", Aliases: []string{"imam reza", "imam ridha", "imam al-rida"}},
	{Kind: types.EntityImam, Name: "Imam Mahdi", Slug: "imam-mahdi", Aliases: []string{"imam mahdi", "imam zamana", "imam al-asr", "sahib al-zaman"}},
	{Kind: types.EntityImam, Name: "Imam Sajjad", Slug: "imam-sajjad", Aliases: []string{"imam sajjad", "zain al-abidin", "zainul abideen"}},
	{Kind: types.EntityRitual, Name: "Ziyarat Ashura", Slug: "ziyarat-ashura", Aliases: []string{"ziyarat ashura", "ziyarat of ashura"}},
	{Kind: types.EntityRitual, Name: "Ziyarat Warith", Slug: "ziyarat-warith", Aliases: []string{"ziyarat warith", "ziyarat warisa"}},
	{Kind: types.EntityRitual, Name: "Dua Kumayl", Slug: "dua-kumayl", Aliases: []string{"dua kumayl", "dua e kumayl", "kumayl"}},
	{Kind: types.EntityRitual, Name: "Dua Tawassul", Slug: "dua-tawassul", Aliases: []string{"dua tawassul", "tawassul"}},
	{Kind: types.EntityRitual, Name: "Salat al-Layl", Slug: "salat-al-layl", Aliases: []string{"salat al-layl", "namaz e shab", "night prayer"}},
}
