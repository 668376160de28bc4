package backend

// Option lists shown by the sign-in and sign-up forms.

const (
	DefaultCountryCode      = "+91"
	DefaultLanguage         = "en"
	DefaultAnswerPreference = "voice"
)

// CountryCode is a dialing prefix choice.
type CountryCode struct {
	Code    string `json:"code"`
	Country string `json:"country"`
}

// Choice is a value with a display label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var CountryCodes = []CountryCode{
	{Code: "+1", Country: "US/CA"},
	{Code: "+44", Country: "UK"},
	{Code: "+91", Country: "India"},
	{Code: "+86", Country: "China"},
	{Code: "+81", Country: "Japan"},
	{Code: "+49", Country: "Germany"},
	{Code: "+33", Country: "France"},
	{Code: "+61", Country: "Australia"},
	{Code: "+55", Country: "Brazil"},
	{Code: "+27", Country: "South Africa"},
}

var Languages = []Choice{
	{Value: "en", Label: "English"},
	{Value: "hi", Label: "Hindi"},
	{Value: "es", Label: "Spanish"},
	{Value: "fr", Label: "French"},
	{Value: "de", Label: "German"},
	{Value: "zh", Label: "Chinese"},
	{Value: "ja", Label: "Japanese"},
	{Value: "pt", Label: "Portuguese"},
	{Value: "ar", Label: "Arabic"},
	{Value: "bn", Label: "Bengali"},
}

// DisabilityTypes are sent verbatim as disability_type.
var DisabilityTypes = []string{
	"Visual Impairment",
	"Hearing Impairment",
	"Speech Disability",
	"Other",
}

var AnswerPreferences = []Choice{
	{Value: "voice", Label: "Voice Only"},
	{Value: "chat", Label: "Text Only"},
	{Value: "both", Label: "Voice + Text"},
}
