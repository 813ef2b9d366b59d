package model

var regionByCountry = map[string]string{
	"JP": "Japan",

	"CN": "Other Asia", "KR": "Other Asia", "IN": "Other Asia",
	"SG": "Other Asia", "TH": "Other Asia", "MY": "Other Asia",
	"PH": "Other Asia", "VN": "Other Asia", "ID": "Other Asia",

	"FR": "Europe", "DE": "Europe", "GB": "Europe", "IT": "Europe",
	"ES": "Europe", "RU": "Europe", "NL": "Europe", "SE": "Europe",
	"CH": "Europe", "BE": "Europe",

	"US": "North America", "CA": "North America",
	"DO": "North America", "MX": "North America",

	"BR": "South America", "AR": "South America", "CL": "South America",
	"CO": "South America", "PE": "South America", "VE": "South America",
	"UY": "South America", "EC": "South America", "BO": "South America",
}

// RegionFromCountry maps an ISO country code to the dataset's coarse region
// buckets. Unknown or absent codes fall into "Other".
func RegionFromCountry(code *string) string {
	if code == nil {
		return "Other"
	}
	if region, ok := regionByCountry[*code]; ok {
		return region
	}
	return "Other"
}
