package region

// countryRow is the literal form of the built-in country list; languages are
// BCP 47 codes with the primary language first.
type countryRow struct {
	name  string
	code  string
	langs []string
	area  string
}

const (
	areaNorthAmerica = "North America"
	areaEurope       = "Europe"
	areaAsiaPacific  = "Asia Pacific"
	areaLatAm        = "Latin America"
	areaMiddleEast   = "Middle East"
	areaAfrica       = "Africa"
)

var builtinCountries = []countryRow{
	{"United States", "US", []string{"en", "es"}, areaNorthAmerica},
	{"Canada", "CA", []string{"en", "fr"}, areaNorthAmerica},
	{"Mexico", "MX", []string{"es"}, areaNorthAmerica},
	{"Guatemala", "GT", []string{"es"}, areaNorthAmerica},
	{"Belize", "BZ", []string{"en", "es"}, areaNorthAmerica},
	{"El Salvador", "SV", []string{"es"}, areaNorthAmerica},
	{"Honduras", "HN", []string{"es"}, areaNorthAmerica},
	{"Nicaragua", "NI", []string{"es"}, areaNorthAmerica},
	{"Costa Rica", "CR", []string{"es"}, areaNorthAmerica},
	{"Panama", "PA", []string{"es"}, areaNorthAmerica},
	{"Cuba", "CU", []string{"es"}, areaNorthAmerica},
	{"Jamaica", "JM", []string{"en"}, areaNorthAmerica},
	{"Haiti", "HT", []string{"fr", "ht"}, areaNorthAmerica},
	{"Dominican Republic", "DO", []string{"es"}, areaNorthAmerica},
	{"Puerto Rico", "PR", []string{"es", "en"}, areaNorthAmerica},

	{"United Kingdom", "GB", []string{"en"}, areaEurope},
	{"Ireland", "IE", []string{"en", "ga"}, areaEurope},
	{"France", "FR", []string{"fr"}, areaEurope},
	{"Spain", "ES", []string{"es"}, areaEurope},
	{"Portugal", "PT", []string{"pt"}, areaEurope},
	{"Italy", "IT", []string{"it"}, areaEurope},
	{"Germany", "DE", []string{"de"}, areaEurope},
	{"Austria", "AT", []string{"de"}, areaEurope},
	{"Switzerland", "CH", []string{"de", "fr", "it"}, areaEurope},
	{"Netherlands", "NL", []string{"nl", "en"}, areaEurope},
	{"Belgium", "BE", []string{"nl", "fr", "de"}, areaEurope},
	{"Luxembourg", "LU", []string{"lb", "fr", "de"}, areaEurope},
	{"Denmark", "DK", []string{"da", "en"}, areaEurope},
	{"Sweden", "SE", []string{"sv", "en"}, areaEurope},
	{"Norway", "NO", []string{"nb", "en"}, areaEurope},
	{"Finland", "FI", []string{"fi", "sv", "en"}, areaEurope},
	{"Iceland", "IS", []string{"is", "en"}, areaEurope},
	{"Poland", "PL", []string{"pl"}, areaEurope},
	{"Czech Republic", "CZ", []string{"cs"}, areaEurope},
	{"Slovakia", "SK", []string{"sk"}, areaEurope},
	{"Hungary", "HU", []string{"hu"}, areaEurope},
	{"Slovenia", "SI", []string{"sl"}, areaEurope},
	{"Croatia", "HR", []string{"hr"}, areaEurope},
	{"Bosnia And Herzegovina", "BA", []string{"bs", "hr", "sr"}, areaEurope},
	{"Serbia", "RS", []string{"sr"}, areaEurope},
	{"Montenegro", "ME", []string{"sr"}, areaEurope},
	{"Macedonia", "MK", []string{"mk"}, areaEurope},
	{"Albania", "AL", []string{"sq"}, areaEurope},
	{"Greece", "GR", []string{"el"}, areaEurope},
	{"Bulgaria", "BG", []string{"bg"}, areaEurope},
	{"Romania", "RO", []string{"ro"}, areaEurope},
	{"Moldova", "MD", []string{"ro", "ru"}, areaEurope},
	{"Ukraine", "UA", []string{"uk", "ru"}, areaEurope},
	{"Belarus", "BY", []string{"be", "ru"}, areaEurope},
	{"Lithuania", "LT", []string{"lt"}, areaEurope},
	{"Latvia", "LV", []string{"lv"}, areaEurope},
	{"Estonia", "EE", []string{"et", "ru"}, areaEurope},
	{"Russian Federation", "RU", []string{"ru"}, areaEurope},
	{"Cyprus", "CY", []string{"el", "tr"}, areaEurope},
	{"Malta", "MT", []string{"mt", "en"}, areaEurope},

	{"Japan", "JP", []string{"ja"}, areaAsiaPacific},
	{"Korea", "KR", []string{"ko"}, areaAsiaPacific},
	{"North Korea", "KP", []string{"ko"}, areaAsiaPacific},
	{"China", "CN", []string{"zh"}, areaAsiaPacific},
	{"Taiwan", "TW", []string{"zh"}, areaAsiaPacific},
	{"Hong Kong", "HK", []string{"zh", "en"}, areaAsiaPacific},
	{"Macao", "MO", []string{"zh", "pt"}, areaAsiaPacific},
	{"Mongolia", "MN", []string{"mn"}, areaAsiaPacific},
	{"Kazakhstan", "KZ", []string{"kk", "ru"}, areaAsiaPacific},
	{"Uzbekistan", "UZ", []string{"uz", "ru"}, areaAsiaPacific},
	{"Kyrgyzstan", "KG", []string{"ky", "ru"}, areaAsiaPacific},
	{"Tajikistan", "TJ", []string{"tg", "ru"}, areaAsiaPacific},
	{"Turkmenistan", "TM", []string{"tk", "ru"}, areaAsiaPacific},
	{"Afghanistan", "AF", []string{"fa", "ps"}, areaAsiaPacific},
	{"Pakistan", "PK", []string{"ur", "en"}, areaAsiaPacific},
	{"India", "IN", []string{"hi", "en"}, areaAsiaPacific},
	{"Bangladesh", "BD", []string{"bn", "en"}, areaAsiaPacific},
	{"Bhutan", "BT", []string{"dz", "en"}, areaAsiaPacific},
	{"Nepal", "NP", []string{"ne", "en"}, areaAsiaPacific},
	{"Sri Lanka", "LK", []string{"si", "ta", "en"}, areaAsiaPacific},
	{"Maldives", "MV", []string{"dv", "en"}, areaAsiaPacific},
	{"Myanmar", "MM", []string{"my", "en"}, areaAsiaPacific},
	{"Thailand", "TH", []string{"th"}, areaAsiaPacific},
	{"Lao People's Democratic Republic", "LA", []string{"lo"}, areaAsiaPacific},
	{"Cambodia", "KH", []string{"km", "en"}, areaAsiaPacific},
	{"Vietnam", "VN", []string{"vi"}, areaAsiaPacific},
	{"Malaysia", "MY", []string{"ms", "en", "zh"}, areaAsiaPacific},
	{"Singapore", "SG", []string{"en", "zh", "ms", "ta"}, areaAsiaPacific},
	{"Brunei Darussalam", "BN", []string{"ms", "en", "zh"}, areaAsiaPacific},
	{"Indonesia", "ID", []string{"id"}, areaAsiaPacific},
	{"Timor-Leste", "TL", []string{"tet", "pt"}, areaAsiaPacific},
	{"Philippines", "PH", []string{"fil", "en"}, areaAsiaPacific},
	{"Australia", "AU", []string{"en"}, areaAsiaPacific},
	{"New Zealand", "NZ", []string{"en", "mi"}, areaAsiaPacific},
	{"Papua New Guinea", "PG", []string{"en", "tpi"}, areaAsiaPacific},
	{"Fiji", "FJ", []string{"en", "fj"}, areaAsiaPacific},
	{"Vanuatu", "VU", []string{"bi", "en", "fr"}, areaAsiaPacific},
	{"New Caledonia", "NC", []string{"fr"}, areaAsiaPacific},
	{"Solomon Islands", "SB", []string{"en"}, areaAsiaPacific},
	{"Tonga", "TO", []string{"to", "en"}, areaAsiaPacific},
	{"Samoa", "WS", []string{"sm", "en"}, areaAsiaPacific},
	{"Kiribati", "KI", []string{"en", "gil"}, areaAsiaPacific},
	{"Tuvalu", "TV", []string{"tvl", "en"}, areaAsiaPacific},
	{"Nauru", "NR", []string{"na", "en"}, areaAsiaPacific},
	{"Palau", "PW", []string{"pau", "en"}, areaAsiaPacific},
	{"Micronesia, Federated States Of", "FM", []string{"en"}, areaAsiaPacific},
	{"Marshall Islands", "MH", []string{"mh", "en"}, areaAsiaPacific},

	{"Brazil", "BR", []string{"pt"}, areaLatAm},
	{"Argentina", "AR", []string{"es"}, areaLatAm},
	{"Chile", "CL", []string{"es"}, areaLatAm},
	{"Uruguay", "UY", []string{"es"}, areaLatAm},
	{"Paraguay", "PY", []string{"es", "gn"}, areaLatAm},
	{"Bolivia", "BO", []string{"es", "qu", "ay"}, areaLatAm},
	{"Peru", "PE", []string{"es", "qu"}, areaLatAm},
	{"Ecuador", "EC", []string{"es", "qu"}, areaLatAm},
	{"Colombia", "CO", []string{"es"}, areaLatAm},
	{"Venezuela", "VE", []string{"es"}, areaLatAm},
	{"Guyana", "GY", []string{"en"}, areaLatAm},
	{"Suriname", "SR", []string{"nl", "en"}, areaLatAm},
	{"French Guiana", "GF", []string{"fr"}, areaLatAm},

	{"Turkey", "TR", []string{"tr"}, areaMiddleEast},
	{"Georgia", "GE", []string{"ka"}, areaMiddleEast},
	{"Armenia", "AM", []string{"hy"}, areaMiddleEast},
	{"Azerbaijan", "AZ", []string{"az"}, areaMiddleEast},
	{"Iran, Islamic Republic Of", "IR", []string{"fa"}, areaMiddleEast},
	{"Iraq", "IQ", []string{"ar", "ku"}, areaMiddleEast},
	{"Syrian Arab Republic", "SY", []string{"ar"}, areaMiddleEast},
	{"Lebanon", "LB", []string{"ar", "fr"}, areaMiddleEast},
	{"Israel", "IL", []string{"he", "ar"}, areaMiddleEast},
	{"Palestinian Territory, Occupied", "PS", []string{"ar"}, areaMiddleEast},
	{"Jordan", "JO", []string{"ar"}, areaMiddleEast},
	{"Saudi Arabia", "SA", []string{"ar"}, areaMiddleEast},
	{"Kuwait", "KW", []string{"ar"}, areaMiddleEast},
	{"Bahrain", "BH", []string{"ar"}, areaMiddleEast},
	{"Qatar", "QA", []string{"ar"}, areaMiddleEast},
	{"United Arab Emirates", "AE", []string{"ar", "en"}, areaMiddleEast},
	{"Oman", "OM", []string{"ar"}, areaMiddleEast},
	{"Yemen", "YE", []string{"ar"}, areaMiddleEast},

	{"Egypt", "EG", []string{"ar"}, areaAfrica},
	{"Libyan Arab Jamahiriya", "LY", []string{"ar"}, areaAfrica},
	{"Tunisia", "TN", []string{"ar", "fr"}, areaAfrica},
	{"Algeria", "DZ", []string{"ar", "fr"}, areaAfrica},
	{"Morocco", "MA", []string{"ar", "fr"}, areaAfrica},
	{"Western Sahara", "EH", []string{"ar"}, areaAfrica},
	{"Mauritania", "MR", []string{"ar", "fr"}, areaAfrica},
	{"Mali", "ML", []string{"fr", "bm"}, areaAfrica},
	{"Niger", "NE", []string{"fr"}, areaAfrica},
	{"Chad", "TD", []string{"fr", "ar"}, areaAfrica},
	{"Sudan", "SD", []string{"ar", "en"}, areaAfrica},
	{"South Sudan", "SS", []string{"en", "ar"}, areaAfrica},
	{"Ethiopia", "ET", []string{"am", "en"}, areaAfrica},
	{"Eritrea", "ER", []string{"ti", "ar"}, areaAfrica},
	{"Djibouti", "DJ", []string{"fr", "ar"}, areaAfrica},
	{"Somalia", "SO", []string{"so", "ar"}, areaAfrica},
	{"Kenya", "KE", []string{"en", "sw"}, areaAfrica},
	{"Uganda", "UG", []string{"en", "sw"}, areaAfrica},
	{"Tanzania", "TZ", []string{"sw", "en"}, areaAfrica},
	{"Rwanda", "RW", []string{"rw", "fr", "en"}, areaAfrica},
	{"Burundi", "BI", []string{"rn", "fr"}, areaAfrica},
	{"Congo, Democratic Republic", "CD", []string{"fr", "ln"}, areaAfrica},
	{"Congo", "CG", []string{"fr"}, areaAfrica},
	{"Central African Republic", "CF", []string{"fr", "sg"}, areaAfrica},
	{"Cameroon", "CM", []string{"fr", "en"}, areaAfrica},
	{"Equatorial Guinea", "GQ", []string{"es", "fr"}, areaAfrica},
	{"Gabon", "GA", []string{"fr"}, areaAfrica},
	{"Sao Tome And Principe", "ST", []string{"pt"}, areaAfrica},
	{"Angola", "AO", []string{"pt"}, areaAfrica},
	{"Zambia", "ZM", []string{"en"}, areaAfrica},
	{"Zimbabwe", "ZW", []string{"en", "sn"}, areaAfrica},
	{"Botswana", "BW", []string{"en", "tn"}, areaAfrica},
	{"Namibia", "NA", []string{"en", "af"}, areaAfrica},
	{"South Africa", "ZA", []string{"en", "af", "zu"}, areaAfrica},
	{"Lesotho", "LS", []string{"st", "en"}, areaAfrica},
	{"Swaziland", "SZ", []string{"ss", "en"}, areaAfrica},
	{"Madagascar", "MG", []string{"mg", "fr"}, areaAfrica},
	{"Mauritius", "MU", []string{"en", "fr"}, areaAfrica},
	{"Seychelles", "SC", []string{"en", "fr"}, areaAfrica},
	{"Comoros", "KM", []string{"fr", "ar"}, areaAfrica},
	{"Mayotte", "YT", []string{"fr"}, areaAfrica},
	{"Reunion", "RE", []string{"fr"}, areaAfrica},
	{"Mozambique", "MZ", []string{"pt"}, areaAfrica},
	{"Malawi", "MW", []string{"en", "ny"}, areaAfrica},
	{"Ghana", "GH", []string{"en"}, areaAfrica},
	{"Togo", "TG", []string{"fr"}, areaAfrica},
	{"Benin", "BJ", []string{"fr"}, areaAfrica},
	{"Burkina Faso", "BF", []string{"fr"}, areaAfrica},
	{"Cote D'Ivoire", "CI", []string{"fr"}, areaAfrica},
	{"Liberia", "LR", []string{"en"}, areaAfrica},
	{"Sierra Leone", "SL", []string{"en"}, areaAfrica},
	{"Guinea", "GN", []string{"fr"}, areaAfrica},
	{"Guinea-Bissau", "GW", []string{"pt", "fr"}, areaAfrica},
	{"Gambia", "GM", []string{"en"}, areaAfrica},
	{"Senegal", "SN", []string{"fr"}, areaAfrica},
	{"Cape Verde", "CV", []string{"pt"}, areaAfrica},
}

var builtinAliases = map[string]string{
	"UK":                       "GB",
	"Great Britain":            "GB",
	"England":                  "GB",
	"USA":                      "US",
	"United States of America": "US",
	"America":                  "US",
	"South Korea":              "KR",
	"Russia":                   "RU",
	"Czechia":                  "CZ",
	"Iran":                     "IR",
	"Syria":                    "SY",
	"Laos":                     "LA",
	"Ivory Coast":              "CI",
	"North Macedonia":          "MK",
	"Eswatini":                 "SZ",
	"Holland":                  "NL",
}

// Sub-national regions whose primary advertising language differs from the
// country default.
var builtinSubregions = []Subregion{
	{Name: "California", Country: "US", Language: "es"},
	{Name: "Texas", Country: "US", Language: "es"},
	{Name: "Nevada", Country: "US", Language: "es"},
	{Name: "Florida", Country: "US", Language: "es"},
	{Name: "New Mexico", Country: "US", Language: "es"},
	{Name: "Arizona", Country: "US", Language: "es"},
	{Name: "New York", Country: "US", Language: "en"},
	{Name: "Quebec", Country: "CA", Language: "fr"},
	{Name: "Catalonia", Country: "ES", Language: "ca"},
	{Name: "Basque Country", Country: "ES", Language: "eu"},
	{Name: "Wales", Country: "GB", Language: "cy"},
	{Name: "Scotland", Country: "GB", Language: "en"},
	{Name: "Bavaria", Country: "DE", Language: "de"},
	{Name: "Flanders", Country: "BE", Language: "nl"},
	{Name: "Wallonia", Country: "BE", Language: "fr"},
	{Name: "Ticino", Country: "CH", Language: "it"},
	{Name: "Romandy", Country: "CH", Language: "fr"},
}

var builtinCulture = map[string]string{
	"California":     "California lifestyle, West Coast vibes, sunny weather",
	"Texas":          "Texas pride, Southern hospitality, big sky country",
	"Nevada":         "Nevada desert, Las Vegas energy, outdoor adventure",
	"New York":       "New York City energy, urban sophistication, fast-paced",
	"Florida":        "Florida sunshine, tropical vibes, beach lifestyle",
	"Costa Rica":     "Costa Rica eco-friendly, tropical paradise, Pura Vida lifestyle",
	"Mexico":         "Mexican culture, vibrant colors, traditional craftsmanship",
	"Canada":         "Canadian wilderness, friendly people, outdoor adventure",
	"United Kingdom": "British heritage, classic style, urban sophistication",
	"Germany":        "German precision, engineering excellence, quality craftsmanship",
	"France":         "French elegance, artisanal quality, sophisticated style",
	"Japan":          "Japanese minimalism, attention to detail, quality craftsmanship",
	"Australia":      "Australian outback, laid-back lifestyle, outdoor adventure",
	"Quebec":         "Quebecois joie de vivre, North American French culture, four-season living",
}

var builtinLabels = map[string]string{
	"California":     "Made in California",
	"Texas":          "Texas Strong",
	"Nevada":         "Nevada Proud",
	"New York":       "NYC Quality",
	"Florida":        "Florida Fresh",
	"Costa Rica":     "Pura Vida",
	"Mexico":         "Hecho en México",
	"Canada":         "Made in Canada",
	"United Kingdom": "British Quality",
	"Germany":        "Made in Germany",
	"France":         "Fabriqué en France",
	"Japan":          "日本製",
	"Australia":      "Made in Australia",
}
