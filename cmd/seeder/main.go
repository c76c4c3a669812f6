package main

import (
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/poiesic/animerec"
	"github.com/poiesic/animerec/config"
)

// sampleAnime is one row in the raw dataset layout, misspelled synopsis column included.
type sampleAnime struct {
	ID       int     `csv:"MAL_ID"`
	Name     string  `csv:"Name"`
	Score    float64 `csv:"Score"`
	Genres   string  `csv:"Genres"`
	Synopsis string  `csv:"sypnopsis"`
}

var samples = []sampleAnime{
	{1, "Cowboy Bebop", 8.78, "Action, Adventure, Comedy, Drama, Sci-Fi, Space",
		"In the year 2071, a ragtag crew of bounty hunters drifts through the solar system aboard the Bebop, chasing criminals and running from their own pasts."},
	{20, "Naruto", 7.91, "Action, Adventure, Comedy, Super Power, Martial Arts, Shounen",
		"An orphaned ninja with a demon fox sealed inside him dreams of becoming the leader of his hidden village and earning the respect of everyone who shunned him."},
	{21, "One Piece", 8.52, "Action, Adventure, Comedy, Super Power, Drama, Fantasy, Shounen",
		"A rubber-bodied boy sets out to sea with a growing pirate crew to find the legendary treasure left behind by the King of the Pirates."},
	{5114, "Fullmetal Alchemist: Brotherhood", 9.19, "Action, Military, Adventure, Comedy, Drama, Magic, Fantasy, Shounen",
		"Two brothers who lost their bodies in a forbidden alchemical ritual search for the Philosopher's Stone and uncover a conspiracy reaching the top of the military."},
	{1535, "Death Note", 8.63, "Mystery, Police, Psychological, Supernatural, Thriller, Shounen",
		"A brilliant student finds a notebook that kills anyone whose name is written in it and begins a cat-and-mouse game with an eccentric detective."},
	{4224, "Toradora!", 8.24, "Slice of Life, Comedy, Romance, School",
		"A delinquent-looking boy and a tiny, fierce classmate agree to help each other win over their crushes and slowly realize where their feelings lie."},
	{2167, "Clannad", 8.02, "Comedy, Drama, Romance, School, Slice of Life, Supernatural",
		"A cynical high school student meets a shy girl repeating her final year and helps her revive the school drama club."},
	{199, "Spirited Away", 8.83, "Adventure, Supernatural, Drama",
		"A young girl wanders into a world of spirits and must work in a bathhouse for the gods to free her parents, who were turned into pigs."},
	{16498, "Attack on Titan", 8.48, "Action, Military, Mystery, Super Power, Drama, Fantasy, Shounen",
		"Humanity lives behind enormous walls to escape man-eating giants until a colossal titan breaches the gate and a boy vows revenge."},
	{9253, "Steins;Gate", 9.11, "Thriller, Sci-Fi",
		"A self-proclaimed mad scientist discovers that his microwave can send messages to the past and learns the cost of rewriting time."},
	{20583, "Haikyu!!", 8.44, "Comedy, Sports, Drama, School, Shounen",
		"A short but determined boy joins his high school volleyball team and forms an unlikely partnership with a gifted, abrasive setter."},
	{32281, "Your Name.", 8.96, "Romance, Supernatural, School, Drama",
		"A city boy and a country girl mysteriously begin swapping bodies and try to meet before a comet changes everything."},
	{30276, "One Punch Man", 8.57, "Action, Sci-Fi, Comedy, Parody, Super Power, Supernatural",
		"A hero who can defeat any enemy with a single punch grows bored of his own strength and searches for a worthy opponent."},
	{11061, "Hunter x Hunter (2011)", 9.10, "Action, Adventure, Fantasy, Shounen, Super Power",
		"A boy leaves his island home to become a Hunter and find the father who abandoned him, making friends and enemies in a dangerous world."},
	{31964, "My Hero Academia", 8.11, "Action, Comedy, School, Shounen, Super Power",
		"In a world where most people have superpowers, a powerless boy inherits the quirk of the greatest hero and enrolls in an elite hero academy."},
	{99999, "Untitled Pilot", 0, "Drama", ""},
}

var (
	outPath   = flag.String("out", "data/anime_with_synopsis.csv", "where to write the sample raw CSV")
	limit     = flag.Int("n", 0, "write at most n rows (0 writes all)")
	build     = flag.Bool("build", false, "also build the index from the written CSV")
	indexDir  = flag.String("index", "", "index directory for -build (defaults to the configured one)")
	processed = flag.String("processed", "data/anime_updated.csv", "processed CSV path for -build")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// firstN returns an iterator over at most n samples; n <= 0 means all of them.
func firstN(rows []sampleAnime, n int) iter.Seq[*sampleAnime] {
	return func(yield func(*sampleAnime) bool) {
		for i := range rows {
			if n > 0 && i >= n {
				return
			}
			if !yield(&rows[i]) {
				return
			}
		}
	}
}

// writeSamples writes the rows from source to path as CSV with a header.
func writeSamples(path string, source iter.Seq[*sampleAnime]) (int, error) {
	var rows []*sampleAnime
	for row := range source {
		rows = append(rows, row)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return 0, err
	}
	return len(rows), f.Sync()
}

func main() {
	flag.Parse()

	n, err := writeSamples(*outPath, firstN(samples, *limit))
	if err != nil {
		panic(err)
	}
	slog.Info("sample dataset written", "path", *outPath, "rows", n)

	if !*build {
		return
	}

	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	if *indexDir != "" {
		cfg.Index.Dir = *indexDir
	}

	report, err := animerec.RunBuildPipeline(context.Background(), cfg, *outPath, *processed,
		animerec.WithProgress(os.Stderr))
	if err != nil {
		panic(err)
	}
	slog.Info("index built", "index", report.Stats.IndexDir, "items", report.Stats.Items)
}
