package models

import "strings"

// Color is a swatch in the phone colour palette.
type Color struct {
	Name   string `json:"name"`
	Bg     string `json:"bg"`
	Text   string `json:"text"`
	Border bool   `json:"border,omitempty"`
}

// PhoneColors is the palette offered by the admin form.
var PhoneColors = []Color{
	{Name: "Siyah", Bg: "#000000", Text: "#FFFFFF"},
	{Name: "Beyaz", Bg: "#FFFFFF", Text: "#000000", Border: true},
	{Name: "Gri", Bg: "#6B7280", Text: "#FFFFFF"},
	{Name: "Gümüş", Bg: "#C0C0C0", Text: "#000000"},
	{Name: "Gold", Bg: "#FFD700", Text: "#000000"},
	{Name: "Rose Gold", Bg: "#B76E79", Text: "#FFFFFF"},
	{Name: "Mavi", Bg: "#3B82F6", Text: "#FFFFFF"},
	{Name: "Mor", Bg: "#9333EA", Text: "#FFFFFF"},
	{Name: "Yeşil", Bg: "#10B981", Text: "#FFFFFF"},
	{Name: "Kırmızı", Bg: "#EF4444", Text: "#FFFFFF"},
	{Name: "Açık Pembe", Bg: "#FFC0CB", Text: "#000000"},
	{Name: "Titanyum Gri", Bg: "#52525B", Text: "#FFFFFF"},
	{Name: "Titanyum Mavi", Bg: "#60A5FA", Text: "#FFFFFF"},
	{Name: "Çeşitli", Bg: "linear-gradient(90deg, #ff0000 0%, #ff7f00 16.67%, #ffff00 33.33%, #00ff00 50%, #0000ff 66.67%, #8b00ff 83.33%, #ff00ff 100%)", Text: "#FFFFFF"},
}

// LookupColor returns the palette entry for name (case-insensitive). Unknown
// names get a neutral grey swatch.
func LookupColor(name string) Color {
	for _, c := range PhoneColors {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return Color{Name: name, Bg: "#6B7280", Text: "#FFFFFF"}
}
