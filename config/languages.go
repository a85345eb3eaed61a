package config

import (
	"encoding/json"
	"os"
	"strings"
)

// Supported language codes.
const (
	LangEnglish = "en-IN"
	LangHindi   = "hi-IN"
	LangTamil   = "ta-IN"
)

// LanguagePolicy carries everything language-specific about a call: the
// opening script, the assistant's persona prompt, the synthesizer voice and
// the phrase sets the turn engine matches against. The turn mechanics stay
// policy-agnostic; swapping this table changes what the assistant says, not
// how turns are taken.
type LanguagePolicy struct {
	Name    string `json:"name"`
	Speaker string `json:"speaker"` // synthesizer voice id

	Greeting     string `json:"greeting"`
	SystemPrompt string `json:"system_prompt"`
	FallbackAck  string `json:"fallback_ack"`

	HonorificMale   string `json:"honorific_male"`
	HonorificFemale string `json:"honorific_female"`
	TitleMale       string `json:"title_male"`
	TitleFemale     string `json:"title_female"`

	FillerWords     []string `json:"filler_words"`
	QuestionMarkers []string `json:"question_markers"`
	FarewellPhrases []string `json:"farewell_phrases"`
}

func defaultPolicies() map[string]LanguagePolicy {
	return map[string]LanguagePolicy{
		LangEnglish: {
			Name:            "English",
			Speaker:         "vidya",
			Greeting:        "Hello, hope you are doing well today. We are calling from the Loan sector, this is a general check-up call regarding the Loan amount that you have borrowed. Your due date is coming up soon. Can you please let us know if you will be paying the balance amount before the due date?",
			SystemPrompt:    "You are Vidya, a polite loan collection assistant on a PHONE CALL.\nCRITICAL RULES:\n- Respond in English. Keep replies to 1-2 SHORT sentences (max 25 words total).\n- Never repeat what you already said. Be empathetic but direct.\n- Address the borrower as '%[1]s' (based on their gender).\n- NEVER ask for information you already have (amount, name, dates).\n\nCONVERSATION FLOW TO FOLLOW:\n1. GREETING (already done): general check-up call about the borrowed loan amount and the upcoming due date.\n2. If borrower confirms they WILL PAY: 'Good to know %[1]s, we will update our records accordingly. Do you have any questions for us?'\n3. If borrower asks about loan amounts: 'Sure %[1]s, your current outstanding loan amount is [amount] and after payment of the due this month your loan amount would be [remaining].'\n4. When borrower says thank you or has no more questions: 'Thank you %[1]s, have a good day!'\n5. For any other scenario (dispute, extension, abusive etc.), handle professionally in 1 sentence.",
			FallbackAck:     "I understand. Could you tell me more about your payment status?",
			HonorificMale:   "sir",
			HonorificFemale: "ma'am",
			TitleMale:       "Mr",
			TitleFemale:     "Mrs",
			FillerWords:     []string{"hmm", "hm", "uh", "um", "ah", "oh"},
			QuestionMarkers: []string{"?", "any questions", "anything else"},
			FarewellPhrases: []string{"have a good day", "have a nice day", "goodbye", "good bye", "take care"},
		},
		LangHindi: {
			Name:            "Hindi",
			Speaker:         "vidya",
			Greeting:        "नमस्ते, आशा है आप अच्छे हैं। हम लोन सेक्टर से कॉल कर रहे हैं, यह आपके उधार लिए गए लोन के बारे में एक सामान्य फॉलो-अप कॉल है। आपकी ड्यू डेट जल्द आ रही है। क्या आप ड्यू डेट से पहले बकाया राशि का भुगतान कर देंगे?",
			SystemPrompt:    "आप विद्या हैं, फोन पर लोन वसूली सहायक।\nमहत्वपूर्ण नियम:\n- हिंदी में जवाब दें। 1-2 छोटे वाक्यों में (अधिकतम 25 शब्द) जवाब दें।\n- जो पहले कह चुकी हैं वो दोबारा न कहें।\n- उधारकर्ता को '%[1]s' कहें (उनके लिंग के आधार पर)।\n- जो जानकारी आपके पास पहले से है (राशि, नाम, तारीख) वो कभी न पूछें।\n\nबातचीत का क्रम:\n1. अभिवादन (पहले ही हो चुका): लोन और आने वाली ड्यू डेट के बारे में सामान्य फॉलो-अप।\n2. अगर उधारकर्ता भुगतान की पुष्टि करे: 'यह सुनकर अच्छा लगा %[1]s, हम अपने रिकॉर्ड अपडेट कर देंगे। क्या आपका कोई सवाल है?'\n3. अगर लोन राशि पूछें: बकाया राशि और भुगतान के बाद शेष राशि बताएं।\n4. जब उधारकर्ता धन्यवाद कहें या कोई सवाल न हो: 'धन्यवाद %[1]s, आपका दिन शुभ हो!'\n5. किसी भी अन्य स्थिति को 1 वाक्य में पेशेवर तरीके से संभालें।",
			FallbackAck:     "मैं समझ रही हूं। कृपया अपने भुगतान की स्थिति बताएं?",
			HonorificMale:   "श्रीमान",
			HonorificFemale: "मैडम",
			TitleMale:       "श्री",
			TitleFemale:     "श्रीमती",
			FillerWords:     []string{"hmm", "hm", "uh", "um", "ah", "oh", "हम्म", "ह", "अ", "उ"},
			QuestionMarkers: []string{"?", "कोई सवाल", "कुछ और"},
			FarewellPhrases: []string{"दिन शुभ हो", "शुभ दिन", "अलविदा", "ख्याल रखिए", "ख्याल रखें"},
		},
		LangTamil: {
			Name:            "Tamil",
			Speaker:         "manisha",
			Greeting:        "வணக்கம், நலமாக இருப்பீர்கள் என நம்புகிறேன். கடன் பிரிவிலிருந்து அழைக்கிறோம், நீங்கள் பெற்ற கடன் தொகை குறித்த வழக்கமான பின்தொடர் அழைப்பு. உங்கள் செலுத்த வேண்டிய தேதி விரைவில் வரவிருக்கிறது. நிலுவைத் தொகையை ட்யூ டேட்-க்கு முன் செலுத்துவீர்களா?",
			SystemPrompt:    "நீங்கள் வித்யா, தொலைபேசியில் கடன் வசூல் உதவியாளர்.\nமுக்கிய விதிகள்:\n- தமிழில் பதிலளிக்கவும். 1-2 குறுகிய வாக்கியங்களில் (அதிகபட்சம் 25 வார்த்தைகள்) பதிலளிக்கவும்.\n- ஏற்கனவே கூறியதை மீண்டும் கூறாதீர்கள்.\n- கடன் வாங்கியவரை '%[1]s' என்று அழையுங்கள்.\n- உங்களிடம் ஏற்கனவே உள்ள தகவல்களை ஒருபோதும் கேட்காதீர்கள்.\n\nஉரையாடல் வரிசை:\n1. வாழ்த்து (ஏற்கனவே செய்யப்பட்டது): கடன் தொகை மற்றும் வரவிருக்கும் தேதி குறித்த பின்தொடர் அழைப்பு.\n2. கடன் வாங்கியவர் செலுத்துவதாக உறுதியளித்தால்: 'நல்லது %[1]s, நாங்கள் எங்கள் பதிவுகளை புதுப்பிப்போம். உங்களுக்கு ஏதாவது கேள்விகள் உள்ளதா?'\n3. கடன் தொகை குறித்து கேட்டால்: நிலுவைத் தொகையையும் கட்டணத்திற்குப் பிந்தைய தொகையையும் கூறுங்கள்.\n4. நன்றி சொல்லும்போது அல்லது கேள்விகள் இல்லை என்றால்: 'நன்றி %[1]s, நல்ல நாள் வாழ்த்துகள்!'\n5. பிற சூழ்நிலைகளுக்கு 1 வாக்கியத்தில் தொழில்முறையாக கையாளுங்கள்.",
			FallbackAck:     "புரிகிறது. உங்கள் கட்டண நிலை பற்றி கூறுங்கள்?",
			HonorificMale:   "ஐயா",
			HonorificFemale: "மேடம்",
			TitleMale:       "திரு",
			TitleFemale:     "திருமதி",
			FillerWords:     []string{"hmm", "hm", "uh", "um", "ah", "oh"},
			QuestionMarkers: []string{"?", "கேள்வி", "வேறு ஏதாவது"},
			FarewellPhrases: []string{"நல்ல நாள் வாழ்த்துகள்", "நல்ல நாள்", "போய் வருகிறேன்", "நலமாக இருங்கள்"},
		},
	}
}

// LoadPolicies returns the language policy table, with per-language overrides
// merged in from the JSON file named by POLICY_FILE when set. Unknown keys in
// the file are ignored; a broken file falls back to the defaults.
func LoadPolicies() map[string]LanguagePolicy {
	policies := defaultPolicies()

	path := os.Getenv("POLICY_FILE")
	if path == "" {
		return policies
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return policies
	}
	var overrides map[string]LanguagePolicy
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return policies
	}
	for lang, p := range overrides {
		lang = NormalizeLanguage(lang)
		base, ok := policies[lang]
		if !ok {
			continue
		}
		policies[lang] = mergePolicy(base, p)
	}
	return policies
}

func mergePolicy(base, o LanguagePolicy) LanguagePolicy {
	if o.Name != "" {
		base.Name = o.Name
	}
	if o.Speaker != "" {
		base.Speaker = o.Speaker
	}
	if o.Greeting != "" {
		base.Greeting = o.Greeting
	}
	if o.SystemPrompt != "" {
		base.SystemPrompt = o.SystemPrompt
	}
	if o.FallbackAck != "" {
		base.FallbackAck = o.FallbackAck
	}
	if o.HonorificMale != "" {
		base.HonorificMale = o.HonorificMale
	}
	if o.HonorificFemale != "" {
		base.HonorificFemale = o.HonorificFemale
	}
	if o.TitleMale != "" {
		base.TitleMale = o.TitleMale
	}
	if o.TitleFemale != "" {
		base.TitleFemale = o.TitleFemale
	}
	if len(o.FillerWords) > 0 {
		base.FillerWords = o.FillerWords
	}
	if len(o.QuestionMarkers) > 0 {
		base.QuestionMarkers = o.QuestionMarkers
	}
	if len(o.FarewellPhrases) > 0 {
		base.FarewellPhrases = o.FarewellPhrases
	}
	return base
}

// NormalizeLanguage maps user-supplied language names and short codes onto the
// supported canonical codes. Unrecognized inputs default to English.
func NormalizeLanguage(language string) string {
	v := strings.ToUpper(strings.TrimSpace(language))
	if v == "" {
		return LangEnglish
	}

	switch v {
	case "ENGLISH", "EN", "EN-IN":
		return LangEnglish
	case "HINDI", "HI", "HI-IN":
		return LangHindi
	case "TAMIL", "TA", "TA-IN":
		return LangTamil
	}

	// Variants like "English (UK)" or "hi_IN".
	switch {
	case strings.Contains(v, "ENGLISH"), strings.HasPrefix(v, "EN"):
		return LangEnglish
	case strings.Contains(v, "HINDI"), strings.HasPrefix(v, "HI"):
		return LangHindi
	case strings.Contains(v, "TAMIL"), strings.HasPrefix(v, "TA"):
		return LangTamil
	}
	return LangEnglish
}
