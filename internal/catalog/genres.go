package catalog

import "sort"

// UnknownGenre is returned for ids missing from the genre table.
const UnknownGenre = "Unknown"

// Genres maps TMDB movie genre ids to display names. It is fixed at
// process start and never mutated.
var Genres = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// ResolveGenreName returns the display name for id, or "Unknown".
func ResolveGenreName(id int) string {
	if name, ok := Genres[id]; ok {
		return name
	}
	return UnknownGenre
}

// GenreNamesSorted lists every genre name alphabetically, for filter menus.
func GenreNamesSorted() []string {
	names := make([]string, 0, len(Genres))
	for _, name := range Genres {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
