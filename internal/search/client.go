// Package search provides full-text note and user search on
// Elasticsearch. Notes rank by text relevance multiplied by an
// aura-weighted engagement score with recency decay; users support
// fuzzy matching and username completion suggestions.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/telemetry"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
)

// Index names
const (
	IndexNotes = "notes"
	IndexUsers = "users"
)

// Client wraps the Elasticsearch client with UOLink-specific functionality
type Client struct {
	es *elasticsearch.Client
}

// NewClient creates a new Elasticsearch client from ELASTICSEARCH_URL
func NewClient() (*Client, error) {
	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		esURL = "http://localhost:9200"
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
		Transport: telemetry.NewInstrumentedTransport(nil),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &Client{es: es}

	if _, err = es.Info(); err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	return client, nil
}

// InitializeIndices creates the search indices with proper mappings
func (c *Client) InitializeIndices(ctx context.Context) error {
	if err := c.createNotesIndex(ctx); err != nil {
		return fmt.Errorf("failed to create notes index: %w", err)
	}
	if err := c.createUsersIndex(ctx); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	return nil
}

func (c *Client) createNotesIndex(ctx context.Context) error {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":      map[string]interface{}{"type": "keyword"},
				"user_id": map[string]interface{}{"type": "keyword"},
				"uploader_username": map[string]interface{}{
					"type": "keyword",
				},
				"title": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
				},
				"description": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
				},
				"subject": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword"},
					},
				},
				"course_code":    map[string]interface{}{"type": "keyword"},
				"university":     map[string]interface{}{"type": "keyword"},
				"semester":       map[string]interface{}{"type": "integer"},
				"tags":           map[string]interface{}{"type": "keyword"},
				"uploader_aura":  map[string]interface{}{"type": "integer"},
				"vote_score":     map[string]interface{}{"type": "integer"},
				"save_count":     map[string]interface{}{"type": "integer"},
				"download_count": map[string]interface{}{"type": "integer"},
				"created_at":     map[string]interface{}{"type": "date"},
			},
		},
	}

	return c.createIndex(ctx, IndexNotes, mapping)
}

func (c *Client) createUsersIndex(ctx context.Context) error {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id": map[string]interface{}{"type": "keyword"},
				"username": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{"type": "keyword"},
						"suggest": map[string]interface{}{
							"type":     "completion",
							"analyzer": "simple",
						},
					},
				},
				"display_name": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
				},
				"bio": map[string]interface{}{
					"type":     "text",
					"analyzer": "standard",
				},
				"university":  map[string]interface{}{"type": "keyword"},
				"major":       map[string]interface{}{"type": "keyword"},
				"aura_points": map[string]interface{}{"type": "integer"},
				"note_count":  map[string]interface{}{"type": "integer"},
				"created_at":  map[string]interface{}{"type": "date"},
			},
		},
	}

	return c.createIndex(ctx, IndexUsers, mapping)
}

// createIndex creates an index with the given mapping, skipping if present
func (c *Client) createIndex(ctx context.Context, indexName string, mapping map[string]interface{}) error {
	res, err := c.es.Indices.Exists([]string{indexName})
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err = c.es.Indices.Create(indexName,
		c.es.Indices.Create.WithBody(bytes.NewReader(mappingJSON)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	return c.checkResponse(res, "creating index "+indexName)
}

// IndexNote indexes a note document
func (c *Client) IndexNote(ctx context.Context, noteID string, doc map[string]interface{}) error {
	return c.indexDocument(ctx, IndexNotes, noteID, doc)
}

// IndexUser indexes a user document
func (c *Client) IndexUser(ctx context.Context, userID string, doc map[string]interface{}) error {
	return c.indexDocument(ctx, IndexUsers, userID, doc)
}

func (c *Client) indexDocument(ctx context.Context, index, docID string, doc map[string]interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", index, err)
	}

	res, err := c.es.Index(index, bytes.NewReader(body),
		c.es.Index.WithDocumentID(docID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index %s document: %w", index, err)
	}
	defer res.Body.Close()

	return c.checkResponse(res, "indexing into "+index)
}

// DeleteNote removes a note from the search index. 404 is not an error.
func (c *Client) DeleteNote(ctx context.Context, noteID string) error {
	return c.deleteDocument(ctx, IndexNotes, noteID)
}

// DeleteUser removes a user from the search index
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.deleteDocument(ctx, IndexUsers, userID)
}

func (c *Client) deleteDocument(ctx context.Context, index, docID string) error {
	res, err := c.es.Delete(index, docID,
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil
	}
	return c.checkResponse(res, "deleting from "+index)
}

func (c *Client) checkResponse(res *esapi.Response, action string) error {
	if !res.IsError() {
		return nil
	}
	var errResp map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
		return fmt.Errorf("error %s: [%s]", action, res.Status())
	}
	return fmt.Errorf("error %s: [%s] %v", action, res.Status(), errResp["error"])
}

// SearchNotesParams contains the filters for a note search
type SearchNotesParams struct {
	Query      string
	Subject    string
	CourseCode string
	University string
	Semester   *int
	Tags       []string
	Limit      int
	Offset     int
}

// NoteSearchHit is a single note search result
type NoteSearchHit struct {
	ID               string   `json:"id"`
	UserID           string   `json:"user_id"`
	UploaderUsername string   `json:"uploader_username"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Subject          string   `json:"subject"`
	CourseCode       string   `json:"course_code"`
	University       string   `json:"university"`
	Semester         int      `json:"semester"`
	Tags             []string `json:"tags,omitempty"`
	VoteScore        int      `json:"vote_score"`
	SaveCount        int      `json:"save_count"`
	CreatedAt        string   `json:"created_at"`
	Score            float64  `json:"score"`
}

// SearchNotesResult is a page of note search results
type SearchNotesResult struct {
	Notes []NoteSearchHit `json:"notes"`
	Total int             `json:"total"`
}

// SearchNotes runs a filtered full-text search over the notes index.
// Relevance is multiplied by an engagement score built from vote score,
// save count, and uploader aura, with an exponential recency decay so
// last semester's top notes don't crowd out fresh uploads forever.
func (c *Client) SearchNotes(ctx context.Context, params SearchNotesParams) (*SearchNotesResult, error) {
	mustClauses := []map[string]interface{}{}
	shouldClauses := []map[string]interface{}{}

	if params.Query != "" {
		shouldClauses = append(shouldClauses,
			map[string]interface{}{
				"match": map[string]interface{}{
					"title": map[string]interface{}{
						"query":     params.Query,
						"boost":     3.0,
						"fuzziness": "AUTO",
					},
				},
			},
			map[string]interface{}{
				"match": map[string]interface{}{
					"description": map[string]interface{}{
						"query":     params.Query,
						"boost":     1.5,
						"fuzziness": "AUTO",
					},
				},
			},
			map[string]interface{}{
				"match": map[string]interface{}{
					"subject": map[string]interface{}{
						"query":     params.Query,
						"boost":     2.0,
						"fuzziness": "AUTO",
					},
				},
			},
			map[string]interface{}{
				"match": map[string]interface{}{
					"uploader_username": map[string]interface{}{
						"query": params.Query,
						"boost": 1.0,
					},
				},
			},
		)
	}

	if params.Subject != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"term": map[string]interface{}{"subject.keyword": params.Subject},
		})
	}
	if params.CourseCode != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"term": map[string]interface{}{"course_code": params.CourseCode},
		})
	}
	if params.University != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"term": map[string]interface{}{"university": params.University},
		})
	}
	if params.Semester != nil {
		mustClauses = append(mustClauses, map[string]interface{}{
			"term": map[string]interface{}{"semester": *params.Semester},
		})
	}
	if len(params.Tags) > 0 {
		mustClauses = append(mustClauses, map[string]interface{}{
			"terms": map[string]interface{}{"tags": params.Tags},
		})
	}

	var baseQuery map[string]interface{}
	if len(shouldClauses) > 0 || len(mustClauses) > 0 {
		boolQuery := map[string]interface{}{}
		if len(mustClauses) > 0 {
			boolQuery["must"] = mustClauses
		}
		if len(shouldClauses) > 0 {
			boolQuery["should"] = shouldClauses
			boolQuery["minimum_should_match"] = 1
		}
		baseQuery = map[string]interface{}{"bool": boolQuery}
	} else {
		baseQuery = map[string]interface{}{"match_all": map[string]interface{}{}}
	}

	scoredQuery := map[string]interface{}{
		"function_score": map[string]interface{}{
			"query": baseQuery,
			"functions": []map[string]interface{}{
				{
					"field_value_factor": map[string]interface{}{
						"field":    "vote_score",
						"factor":   3.0,
						"modifier": "log1p",
						"missing":  0,
					},
				},
				{
					"field_value_factor": map[string]interface{}{
						"field":    "save_count",
						"factor":   2.0,
						"modifier": "log1p",
						"missing":  0,
					},
				},
				{
					"field_value_factor": map[string]interface{}{
						"field":    "uploader_aura",
						"factor":   1.0,
						"modifier": "log1p",
						"missing":  0,
					},
				},
				{
					"exp": map[string]interface{}{
						"created_at": map[string]interface{}{
							"origin": "now",
							"scale":  "60d",
							"decay":  0.5,
						},
					},
					"weight": 0.5,
				},
			},
			"score_mode": "sum",
			"boost_mode": "multiply",
		},
	}

	query := map[string]interface{}{
		"query": scoredQuery,
		"from":  params.Offset,
		"size":  params.Limit,
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}

	return c.executeNoteSearch(ctx, query)
}

func (c *Client) executeNoteSearch(ctx context.Context, query map[string]interface{}) (*SearchNotesResult, error) {
	hits, total, err := c.execute(ctx, IndexNotes, query)
	if err != nil {
		return nil, err
	}

	notes := make([]NoteSearchHit, 0, len(hits))
	for _, hit := range hits {
		note := NoteSearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		note.UserID, _ = hit.Source["user_id"].(string)
		note.UploaderUsername, _ = hit.Source["uploader_username"].(string)
		note.Title, _ = hit.Source["title"].(string)
		note.Description, _ = hit.Source["description"].(string)
		note.Subject, _ = hit.Source["subject"].(string)
		note.CourseCode, _ = hit.Source["course_code"].(string)
		note.University, _ = hit.Source["university"].(string)
		note.CreatedAt, _ = hit.Source["created_at"].(string)
		if semester, ok := hit.Source["semester"].(float64); ok {
			note.Semester = int(semester)
		}
		if voteScore, ok := hit.Source["vote_score"].(float64); ok {
			note.VoteScore = int(voteScore)
		}
		if saveCount, ok := hit.Source["save_count"].(float64); ok {
			note.SaveCount = int(saveCount)
		}
		if tags, ok := hit.Source["tags"].([]interface{}); ok {
			note.Tags = make([]string, 0, len(tags))
			for _, tag := range tags {
				if s, ok := tag.(string); ok {
					note.Tags = append(note.Tags, s)
				}
			}
		}
		notes = append(notes, note)
	}

	return &SearchNotesResult{Notes: notes, Total: total}, nil
}

// UserSearchHit is a single user search result
type UserSearchHit struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	Bio         string  `json:"bio"`
	University  string  `json:"university"`
	Major       string  `json:"major"`
	AuraPoints  int     `json:"aura_points"`
	NoteCount   int     `json:"note_count"`
	Score       float64 `json:"score"`
}

// SearchUsersResult is a page of user search results
type SearchUsersResult struct {
	Users []UserSearchHit `json:"users"`
	Total int             `json:"total"`
}

// SearchUsers searches for users by name, username, or bio
func (c *Client) SearchUsers(ctx context.Context, query string, limit, offset int) (*SearchUsersResult, error) {
	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{
						"match": map[string]interface{}{
							"username": map[string]interface{}{
								"query":         query,
								"boost":         2.0,
								"fuzziness":     "AUTO",
								"prefix_length": 1,
							},
						},
					},
					{
						"match": map[string]interface{}{
							"display_name": map[string]interface{}{
								"query":     query,
								"boost":     1.5,
								"fuzziness": "AUTO",
							},
						},
					},
					{
						"match": map[string]interface{}{
							"bio": map[string]interface{}{
								"query":     query,
								"boost":     0.5,
								"fuzziness": "AUTO",
							},
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
			{"aura_points": map[string]interface{}{"order": "desc"}},
		},
		"from": offset,
		"size": limit,
	}

	hits, total, err := c.execute(ctx, IndexUsers, searchQuery)
	if err != nil {
		return nil, err
	}

	users := make([]UserSearchHit, 0, len(hits))
	for _, hit := range hits {
		user := UserSearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		user.Username, _ = hit.Source["username"].(string)
		user.DisplayName, _ = hit.Source["display_name"].(string)
		user.Bio, _ = hit.Source["bio"].(string)
		user.University, _ = hit.Source["university"].(string)
		user.Major, _ = hit.Source["major"].(string)
		if auraPoints, ok := hit.Source["aura_points"].(float64); ok {
			user.AuraPoints = int(auraPoints)
		}
		if noteCount, ok := hit.Source["note_count"].(float64); ok {
			user.NoteCount = int(noteCount)
		}
		users = append(users, user)
	}

	return &SearchUsersResult{Users: users, Total: total}, nil
}

type rawHit struct {
	ID     string                 `json:"_id"`
	Score  float64                `json:"_score"`
	Source map[string]interface{} `json:"_source"`
}

func (c *Client) execute(ctx context.Context, index string, query map[string]interface{}) ([]rawHit, int, error) {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(queryJSON)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if err := c.checkResponse(res, "searching "+index); err != nil {
		return nil, 0, err
	}

	var searchResp struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []rawHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}

	return searchResp.Hits.Hits, searchResp.Hits.Total.Value, nil
}

// SuggestUsers returns autocomplete suggestions for usernames
func (c *Client) SuggestUsers(ctx context.Context, query string, limit int) ([]string, error) {
	suggestQuery := map[string]interface{}{
		"suggest": map[string]interface{}{
			"username_suggest": map[string]interface{}{
				"prefix": query,
				"completion": map[string]interface{}{
					"field": "username.suggest",
					"size":  limit,
				},
			},
		},
	}

	queryJSON, err := json.Marshal(suggestQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal suggest query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(IndexUsers),
		c.es.Search.WithBody(bytes.NewReader(queryJSON)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute suggest: %w", err)
	}
	defer res.Body.Close()

	if err := c.checkResponse(res, "suggesting users"); err != nil {
		return nil, err
	}

	var suggestResp struct {
		Suggest struct {
			UsernameSuggest []struct {
				Options []struct {
					Text string `json:"text"`
				} `json:"options"`
			} `json:"username_suggest"`
		} `json:"suggest"`
	}
	if err := json.NewDecoder(res.Body).Decode(&suggestResp); err != nil {
		return nil, fmt.Errorf("failed to decode suggest response: %w", err)
	}

	suggestions := make([]string, 0)
	if len(suggestResp.Suggest.UsernameSuggest) > 0 {
		for _, option := range suggestResp.Suggest.UsernameSuggest[0].Options {
			suggestions = append(suggestions, option.Text)
		}
	}

	return suggestions, nil
}
