package config

// Destination countries served by the carrier network. The alpha-2 table
// feeds the allowed-destination list, the alpha-3 table the PUDO API which
// only accepts three-letter codes.

var countryNames = map[string]string{
	"IT": "Italia",
	"AT": "Austria",
	"BE": "Belgio",
	"BG": "Bulgaria",
	"CH": "Svizzera",
	"CY": "Cipro",
	"CZ": "Repubblica Ceca",
	"DE": "Germania",
	"DK": "Danimarca",
	"EE": "Estonia",
	"ES": "Spagna",
	"FI": "Finlandia",
	"FR": "Francia",
	"GB": "Regno Unito",
	"GR": "Grecia",
	"HR": "Croazia",
	"HU": "Ungheria",
	"IE": "Irlanda",
	"LT": "Lituania",
	"LU": "Lussemburgo",
	"LV": "Lettonia",
	"MT": "Malta",
	"NL": "Paesi Bassi",
	"NO": "Norvegia",
	"PL": "Polonia",
	"PT": "Portogallo",
	"RO": "Romania",
	"SE": "Svezia",
	"SI": "Slovenia",
	"SK": "Slovacchia",
	"AD": "Andorra",
	"AL": "Albania",
	"BA": "Bosnia-Erzegovina",
	"LI": "Liechtenstein",
	"MC": "Monaco",
	"ME": "Montenegro",
	"MK": "Macedonia del Nord",
	"RS": "Serbia",
	"SM": "San Marino",
	"TR": "Turchia",
}

var countryAlpha3 = map[string]string{
	"IT": "ITA",
	"AT": "AUT",
	"BE": "BEL",
	"BG": "BGR",
	"CH": "CHE",
	"CY": "CYP",
	"CZ": "CZE",
	"DE": "DEU",
	"DK": "DNK",
	"EE": "EST",
	"ES": "ESP",
	"FI": "FIN",
	"FR": "FRA",
	"GB": "GBR",
	"GR": "GRC",
	"HR": "HRV",
	"HU": "HUN",
	"IE": "IRL",
	"LT": "LTU",
	"LU": "LUX",
	"LV": "LVA",
	"MT": "MLT",
	"NL": "NLD",
	"NO": "NOR",
	"PL": "POL",
	"PT": "PRT",
	"RO": "ROU",
	"SE": "SWE",
	"SI": "SVN",
	"SK": "SVK",
	"AD": "AND",
	"AL": "ALB",
	"BA": "BIH",
	"LI": "LIE",
	"MC": "MCO",
	"ME": "MNE",
	"MK": "MKD",
	"RS": "SRB",
	"SM": "SMR",
	"TR": "TUR",
}

// Alpha3 converts an ISO 3166-1 alpha-2 country code to its alpha-3 form.
func Alpha3(alpha2 string) (string, bool) {
	code, ok := countryAlpha3[alpha2]
	return code, ok
}

// CountryName returns the display name for an alpha-2 code, when known.
func CountryName(alpha2 string) (string, bool) {
	name, ok := countryNames[alpha2]
	return name, ok
}

// AllCountries returns a copy of the full built-in alpha-2 table.
func AllCountries() map[string]string {
	out := make(map[string]string, len(countryNames))
	for code, name := range countryNames {
		out[code] = name
	}
	return out
}
