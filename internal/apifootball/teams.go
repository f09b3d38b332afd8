package apifootball

import (
	"sort"
	"strings"
)

// Default league and season for the bundled team catalog.
const (
	BrasileiraoSerieA = 71
	DefaultSeason     = 2025
)

// Team is a club in the catalog with its API-Football ID.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var brasileirao = map[string]int{
	"Athletico-PR":        1050,
	"Atlético-GO":         1062,
	"Atlético-MG":         127,
	"Bahia":               132,
	"Botafogo":            124,
	"Ceará":               134,
	"Corinthians":         131,
	"Criciúma":            1065,
	"Cruzeiro":            128,
	"Flamengo":            123,
	"Fluminense":          125,
	"Fortaleza":           142,
	"Grêmio":              130,
	"Internacional":       129,
	"Juventude":           1071,
	"Mirassol":            2282,
	"Palmeiras":           126,
	"Red Bull Bragantino": 1064,
	"Santos":              121,
	"São Paulo":           119,
	"Sport":               139,
	"Vasco da Gama":       122,
	"Vitória":             135,
}

// Teams returns the catalog sorted by name.
func Teams() []Team {
	teams := make([]Team, 0, len(brasileirao))
	for name, id := range brasileirao {
		teams = append(teams, Team{ID: id, Name: name})
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams
}

// LookupTeam finds a team by name, ignoring case and surrounding spaces.
func LookupTeam(name string) (Team, bool) {
	name = strings.TrimSpace(name)
	if id, ok := brasileirao[name]; ok {
		return Team{ID: id, Name: name}, true
	}
	for n, id := range brasileirao {
		if strings.EqualFold(n, name) {
			return Team{ID: id, Name: n}, true
		}
	}
	return Team{}, false
}
