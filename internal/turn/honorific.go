package turn

import "strings"

// Gender labels used for honorific selection.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Common Indian female first names. The lookup is inherently approximate:
// names outside the set default to male, which picks the wrong honorific for
// some callers but never fails the call.
var femaleFirstNames = map[string]struct{}{}

func init() {
	names := []string{
		"shalini", "priya", "lakshmi", "deepa", "anita", "sunita", "kavita", "meena",
		"rekha", "neha", "pooja", "swati", "anjali", "divya", "sneha", "ritu",
		"nisha", "rani", "geeta", "seema", "mamta", "sapna", "jyoti", "suman",
		"padma", "vidya", "radha", "uma", "sarita", "asha", "usha", "kalpana",
		"shobha", "lata", "chitra", "kamala", "pushpa", "savita", "sudha", "mala",
		"aruna", "saroj", "indira", "parvati", "malini", "revathi", "bhavani",
		"devi", "gowri", "janaki", "kalyani", "meenakshi", "nirmala", "sarala",
		"vasanthi", "vijaya", "yamuna", "sumathi", "jayanthi", "lalitha", "rohini",
		"preeti", "shweta", "ankita", "pallavi", "shruti", "aishwarya", "bhavna",
		"manisha", "rashmi", "varsha", "alka", "komal", "tanvi", "ritika", "sakshi",
		"aarthi", "karthika", "nandhini", "vaishnavi", "harini", "sangeetha",
		"mythili", "bhuvana", "abinaya", "dhivya", "gayathri", "keerthana",
		"mathangi", "oviya", "priyanka", "ramya", "swetha", "thenmozhi", "vani",
		"amita", "garima", "heena", "ila", "juhi", "kiran", "laxmi", "madhu",
		"namita", "omana", "payal", "rachana", "sonal", "tara", "urmila", "vinita",
	}
	for _, n := range names {
		femaleFirstNames[n] = struct{}{}
	}
}

// DetectGender infers gender from a borrower's first name, defaulting to male
// when uncertain.
func DetectGender(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return GenderMale
	}
	if _, ok := femaleFirstNames[strings.ToLower(fields[0])]; ok {
		return GenderFemale
	}
	return GenderMale
}
