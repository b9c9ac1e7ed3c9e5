package astro

// Star is an immutable catalog entry in equatorial coordinates (J2000).
type Star struct {
	Name    string
	RAHours float64 // Right ascension in hours (0-24)
	DecDeg  float64 // Declination in degrees (-90 to +90)
}

// Constellation is an ordered figure. The order defines the polyline drawn
// between stars, and the figure is closed back to the first star.
type Constellation struct {
	Name  string
	Stars []Star
}

// Catalog returns the built-in constellation figures. The returned slice is a
// fresh copy; callers may keep it.
func Catalog() []Constellation {
	out := make([]Constellation, len(catalog))
	for i, c := range catalog {
		stars := make([]Star, len(c.Stars))
		copy(stars, c.Stars)
		out[i] = Constellation{Name: c.Name, Stars: stars}
	}
	return out
}

// FindConstellation looks up a built-in figure by name.
func FindConstellation(name string) (Constellation, bool) {
	for _, c := range Catalog() {
		if c.Name == name {
			return c, true
		}
	}
	return Constellation{}, false
}

var catalog = []Constellation{
	{"Orion", []Star{
		{"Betelgeuse", 5.9195, 7.4071},
		{"Rigel", 5.2423, -8.2016},
		{"Bellatrix", 5.4206, 6.3497},
		{"Mintaka", 5.5319, -0.2992},
		{"Alnilam", 5.6036, -1.2019},
		{"Alnitak", 5.6792, -1.9428},
		{"Saiph", 5.7895, -9.6697},
	}},
	{"Ursa Major", []Star{
		{"Dubhe", 11.0621, 61.7510},
		{"Merak", 11.0307, 56.3824},
		{"Phecda", 11.8972, 53.6948},
		{"Megrez", 12.2571, 57.0326},
		{"Alioth", 12.9005, 55.9598},
		{"Mizar", 13.3988, 54.9254},
		{"Alkaid", 13.7923, 49.3133},
	}},
	{"Cassiopeia", []Star{
		{"Caph", 0.1529, 59.1498},
		{"Schedar", 0.6751, 56.5373},
		{"Navi", 0.9451, 60.7167},
		{"Ruchbah", 1.4303, 60.2353},
		{"Segin", 1.9066, 63.6701},
	}},
	{"Cygnus", []Star{
		{"Deneb", 20.6905, 45.2803},
		{"Sadr", 20.3705, 40.2567},
		{"Albireo", 19.5120, 27.9597},
		{"Fawaris", 19.7496, 45.1308},
		{"Aljanah", 20.7702, 33.9703},
	}},
	{"Lyra", []Star{
		{"Vega", 18.6156, 38.7837},
		{"Zeta Lyrae", 18.7462, 37.6051},
		{"Sheliak", 18.8347, 33.3627},
		{"Sulafat", 18.9824, 32.6896},
	}},
	{"Leo", []Star{
		{"Regulus", 10.1395, 11.9672},
		{"Algieba", 10.3329, 19.8415},
		{"Zosma", 11.2351, 20.5237},
		{"Denebola", 11.8177, 14.5720},
		{"Chertan", 11.2373, 15.4296},
	}},
	{"Scorpius", []Star{
		{"Acrab", 16.0906, -19.8055},
		{"Dschubba", 16.0056, -22.6217},
		{"Antares", 16.4901, -26.4320},
		{"Shaula", 17.5601, -37.1038},
		{"Sargas", 17.6219, -42.9978},
	}},
	{"Crux", []Star{
		{"Acrux", 12.4433, -63.0991},
		{"Mimosa", 12.7953, -59.6888},
		{"Gacrux", 12.5194, -57.1132},
		{"Imai", 12.2524, -58.7489},
	}},
}
