package dispatch

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// GeneralTopic is used when a help topic is absent or unknown.
const GeneralTopic = "general"

var helpTopics = map[string]string{
	"fire":     "Fire emergencies: Call 16 or 1122. Evacuate safely, don't use elevators.",
	"medical":  "Medical emergencies: Call 1122 for ambulance. Provide clear location.",
	"accident": "Accidents: Call 1122, secure area, don't move injured unless dangerous.",
	"police":   "Police emergencies: Call 15. Provide location and nature of incident.",
	"motorway": "Motorway emergencies: Call 130. Stay behind the barrier and switch on hazard lights.",
	"flood":    "Floods: Call 1122. Move to higher ground and avoid walking through moving water.",
	"general":  "Emergency numbers: Police (15), Fire (16), Medical (1122), Motorway (130)",
}

// topicAliases maps common words to a help topic.
var topicAliases = map[string]string{
	"ambulance": "medical",
	"injury":    "medical",
	"health":    "medical",
	"crash":     "accident",
	"collision": "accident",
	"crime":     "police",
	"theft":     "police",
	"highway":   "motorway",
	"rain":      "flood",
}

// EmergencyNumbers lists the national emergency lines.
var EmergencyNumbers = map[string]string{
	"Police":          "15",
	"Fire":            "16",
	"Medical/Rescue":  "1122",
	"Motorway Police": "130",
}

var topicNames = func() []string {
	names := make([]string, 0, len(helpTopics))
	for k := range helpTopics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}()

// ResolveTopic maps free text to a help topic. Each word is tried as an
// exact topic, then as an alias, then as a fuzzy match against the topic
// names; the first hit wins.
func ResolveTopic(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for _, w := range words {
		if _, ok := helpTopics[w]; ok {
			return w
		}
		if t, ok := topicAliases[w]; ok {
			return t
		}
	}
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		if matches := fuzzy.Find(w, topicNames); len(matches) > 0 {
			return matches[0].Str
		}
	}
	return GeneralTopic
}

// Guidance returns the help text for a resolved topic.
func Guidance(topic string) string {
	if g, ok := helpTopics[topic]; ok {
		return g
	}
	return helpTopics[GeneralTopic]
}

// Topics returns the known help topics, sorted.
func Topics() []string {
	return append([]string(nil), topicNames...)
}
