package search

import (
	"fmt"

	"contractor-matching/internal/models"
)

// indexMapping types the fields the query filters on.
const indexMapping = `{
  "mappings": {
    "properties": {
      "id":                    {"type": "keyword"},
      "status":                {"type": "keyword"},
      "backgroundCheckStatus": {"type": "keyword"},
      "insuranceStatus":       {"type": "keyword"},
      "certifications":        {"type": "keyword"},
      "certifiedServices":     {"type": "keyword"},
      "languages":             {"type": "keyword"},
      "location":              {"type": "geo_point"}
    }
  }
}`

// buildContractorQuery mirrors the structural gates of q. Contractors
// without a location stay in the result so the caller can decide. after is
// the sort value of the previous page's last hit.
func buildContractorQuery(q models.ContractorQuery, size int, after []interface{}) map[string]interface{} {
	filterClauses := []interface{}{}

	terms := []struct {
		field string
		value string
	}{
		{"status", string(q.Status)},
		{"backgroundCheckStatus", string(q.BackgroundCheck)},
		{"insuranceStatus", string(q.Insurance)},
	}
	for _, t := range terms {
		if t.value == "" {
			continue
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{t.field: t.value},
		})
	}

	if q.Origin != nil && q.MaxDistanceMiles > 0 && q.Origin.Validate() == nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{
						"geo_distance": map[string]interface{}{
							"distance": fmt.Sprintf("%gmi", q.MaxDistanceMiles),
							"location": map[string]interface{}{
								"lat": q.Origin.Lat,
								"lon": q.Origin.Lng,
							},
						},
					},
					map[string]interface{}{
						"bool": map[string]interface{}{
							"must_not": map[string]interface{}{
								"exists": map[string]interface{}{"field": "location"},
							},
						},
					},
				},
				"minimum_should_match": 1,
			},
		})
	}

	body := map[string]interface{}{
		"size": size,
		"sort": []interface{}{
			map[string]interface{}{"id": "asc"},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
			},
		},
	}
	if len(after) > 0 {
		body["search_after"] = after
	}
	return body
}
