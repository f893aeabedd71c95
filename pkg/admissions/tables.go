package admissions

// SentinelStay is a placeholder date found in the Stay column of the raw
// export. Rows carrying it are invalid.
const SentinelStay = "2025/11/20"

// LongStayLabel is the open-ended stay bucket.
const LongStayLabel = "More than 100 Days"

const (
	GroupYoung  = "Young"
	GroupMiddle = "Middle"
	GroupSenior = "Senior"
)

// AgeBuckets are the age labels in ascending order.
var AgeBuckets = []string{"0-10", "11-20", "21-30", "31-40", "41-50", "51-60", "61-70", "71-80", "81-90", "91-100"}

// StayBuckets are the stay labels in ascending order.
var StayBuckets = []string{"0-10", "11-20", "21-30", "31-40", "41-50", "51-60", "61-70", "71-80", "81-90", "91-100", LongStayLabel}

var (
	ageMidpoints = map[string]float64{
		"0-10": 5, "11-20": 15, "21-30": 25, "31-40": 35, "41-50": 45,
		"51-60": 55, "61-70": 65, "71-80": 75, "81-90": 85, "91-100": 95,
	}
	ageGroups = map[string]string{
		"0-10": GroupYoung, "11-20": GroupYoung, "21-30": GroupYoung,
		"31-40": GroupMiddle, "41-50": GroupMiddle, "51-60": GroupMiddle,
	}
	stayMidpoints = map[string]float64{
		"0-10": 5.5, "11-20": 15.5, "21-30": 25.5, "31-40": 35.5, "41-50": 45.5,
		"51-60": 55.5, "61-70": 65.5, "71-80": 75.5, "81-90": 85.5, "91-100": 95.5,
		LongStayLabel: 120,
	}
	severityLevels = map[string]float64{"Minor": 1, "Moderate": 2, "Extreme": 3}
)

// AgeMidpoints maps each age bucket to its midpoint.
func AgeMidpoints() map[string]float64 { return copyTable(ageMidpoints) }

// AgeGroups maps the young and middle age buckets to their group. Every
// other bucket is GroupSenior.
func AgeGroups() map[string]string {
	out := make(map[string]string, len(ageGroups))
	for k, v := range ageGroups {
		out[k] = v
	}
	return out
}

// StayMidpoints maps each stay bucket to a representative day count.
func StayMidpoints() map[string]float64 { return copyTable(stayMidpoints) }

// SeverityLevels is the ordinal encoding of illness severity.
func SeverityLevels() map[string]float64 { return copyTable(severityLevels) }

func copyTable(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func labels(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
