// Package similarity implements the similarity engine of spec.md §4.6:
// TF-IDF cosine similarity, shared-tag Jaccard, 2-hop neighbourhood
// relatedness, and duplicate detection, backed by internal/index.
package similarity

import (
	"math"

	"github.com/mwaldstein/qipu-go/internal/note"
	"github.com/mwaldstein/qipu-go/internal/textutil"
)

// corpus is the weighted term-frequency bag for every note, plus the
// document frequency needed to compute IDF.
type corpus struct {
	docs map[string]map[string]float64 // note id -> term -> weighted tf
	df   map[string]int                // term -> number of docs containing it
	n    int
}

func buildCorpus(notes []*note.Note) *corpus {
	c := &corpus{docs: map[string]map[string]float64{}, df: map[string]int{}, n: len(notes)}
	for _, note := range notes {
		bag := weightedBag(note.Title, note.Body, note.Tags)
		c.docs[note.ID] = bag
		for term := range bag {
			c.df[term]++
		}
	}
	return c
}

// weightedBag accumulates term frequencies from title, body and tags,
// each scaled by its field weight, per spec.md §4.6.
func weightedBag(title, body string, tags []string) map[string]float64 {
	bag := map[string]float64{}
	add := func(tokens []string, weight float64) {
		for _, t := range tokens {
			bag[t] += weight
		}
	}
	add(textutil.Tokenize(title), textutil.TitleWeight)
	add(textutil.Tokenize(body), textutil.BodyWeight)
	add(tags, textutil.TagsWeight)
	return bag
}

// vector returns the TF-IDF vector for a document's weighted bag.
func (c *corpus) vector(bag map[string]float64) map[string]float64 {
	v := make(map[string]float64, len(bag))
	for term, tf := range bag {
		df := c.df[term]
		if df == 0 {
			df = 1
		}
		idf := math.Log(float64(c.n+1) / float64(df))
		v[term] = tf * idf
	}
	return v
}

func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, va := range a {
		normA += va * va
		if vb, ok := b[term]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
