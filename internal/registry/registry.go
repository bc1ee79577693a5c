package registry

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/omarshaarawi/superliga/internal/models"
)

var (
	ErrEmptyLeagueID   = errors.New("league id is empty")
	ErrDuplicateLeague = errors.New("duplicate league id")
	ErrNoLeagues       = errors.New("no leagues configured")
)

// Registry is the validated, ordered list of leagues that make up the Super Liga.
type Registry struct {
	leagues []models.LeagueRef
	byID    map[string]models.LeagueRef
}

// New validates leagues and keeps their order. Empty or duplicate ids are
// rejected.
func New(leagues []models.LeagueRef) (*Registry, error) {
	if len(leagues) == 0 {
		return nil, ErrNoLeagues
	}

	r := &Registry{
		leagues: make([]models.LeagueRef, 0, len(leagues)),
		byID:    make(map[string]models.LeagueRef, len(leagues)),
	}
	for i, l := range leagues {
		l.ID = strings.TrimSpace(l.ID)
		if l.ID == "" {
			return nil, fmt.Errorf("league #%d (%q): %w", i+1, l.Name, ErrEmptyLeagueID)
		}
		if _, ok := r.byID[l.ID]; ok {
			return nil, fmt.Errorf("league %s (%q): %w", l.ID, l.Name, ErrDuplicateLeague)
		}
		if l.Name == "" {
			l.Name = l.ID
		}
		r.leagues = append(r.leagues, l)
		r.byID[l.ID] = l
	}
	return r, nil
}

type file struct {
	Leagues []models.LeagueRef `yaml:"leagues"`
}

// Load reads a YAML league list. An empty path yields the built-in leagues.
func Load(path string) (*Registry, error) {
	if path == "" {
		return New(Default())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading leagues file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing leagues file: %w", err)
	}
	return New(f.Leagues)
}

// Leagues returns the leagues in configured order.
func (r *Registry) Leagues() []models.LeagueRef {
	out := make([]models.LeagueRef, len(r.leagues))
	copy(out, r.leagues)
	return out
}

func (r *Registry) Get(id string) (models.LeagueRef, bool) {
	l, ok := r.byID[id]
	return l, ok
}

func (r *Registry) Len() int {
	return len(r.leagues)
}

// Names maps league id to display name.
func (r *Registry) Names() map[string]string {
	names := make(map[string]string, len(r.leagues))
	for _, l := range r.leagues {
		names[l.ID] = l.Name
	}
	return names
}

// Default is the 2025 active league list.
func Default() []models.LeagueRef {
	return []models.LeagueRef{
		{ID: "1133458711982469120", Name: "Liga Prata #58"},
		{ID: "1130239772808798208", Name: "Liga Prata #8"},
		{ID: "1130239579430412288", Name: "Liga Prata #7"},
		{ID: "1130239270708510720", Name: "Liga Prata #6"},
		{ID: "1130238606582366208", Name: "Liga Prata #5"},
		{ID: "1130238258962817024", Name: "Liga Prata #4"},
		{ID: "1130237883295805440", Name: "Liga Prata #3"},
		{ID: "1130237586657869824", Name: "Liga Prata #2"},
		{ID: "1130232274991058944", Name: "Liga Ouro #1"},
		{ID: "1130236947248578560", Name: "Liga dos Creators ⭐"},
	}
}
