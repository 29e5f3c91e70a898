package model

// Region is a named grouping dimension (a country) under which points are tracked.
type Region struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// popularRegions is the fixed region catalog synthetic traffic is drawn from.
var popularRegions = []Region{
	{Name: "Hong Kong", Code: "HK"},
	{Name: "Taiwan", Code: "TW"},
	{Name: "Japan", Code: "JP"},
	{Name: "South Korea", Code: "KR"},
	{Name: "Malaysia", Code: "MY"},
	{Name: "Saudi Arabia", Code: "SA"},
	{Name: "United States", Code: "US"},
	{Name: "Indonesia", Code: "ID"},
	{Name: "Finland", Code: "FI"},
	{Name: "India", Code: "IN"},
	{Name: "Spain", Code: "ES"},
	{Name: "Thailand", Code: "TH"},
	{Name: "Australia", Code: "AU"},
	{Name: "Vietnam", Code: "VN"},
	{Name: "France", Code: "FR"},
	{Name: "Egypt", Code: "EG"},
	{Name: "Mexico", Code: "MX"},
	{Name: "Philippines", Code: "PH"},
	{Name: "Singapore", Code: "SG"},
	{Name: "Germany", Code: "DE"},
}

// PopularRegions returns a copy of the region catalog.
func PopularRegions() []Region {
	out := make([]Region, len(popularRegions))
	copy(out, popularRegions)
	return out
}

// RegionByCode looks up a catalog region by its code.
func RegionByCode(code string) (Region, bool) {
	for _, r := range popularRegions {
		if r.Code == code {
			return r, true
		}
	}
	return Region{}, false
}
