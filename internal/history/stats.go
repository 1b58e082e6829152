package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Stats aggregates the history of one endpoint and operation
type Stats struct {
	URL           string      `json:"url" yaml:"url"`
	OperationName string      `json:"operationName,omitempty" yaml:"operationName,omitempty"`
	TotalCalls    int         `json:"totalCalls" yaml:"totalCalls"`
	SuccessCount  int         `json:"successCount" yaml:"successCount"`
	ErrorCount    int         `json:"errorCount" yaml:"errorCount"`
	NetworkErrors int         `json:"networkErrors" yaml:"networkErrors"` // no response (status 0)
	GraphQLErrors int         `json:"graphqlErrors" yaml:"graphqlErrors"` // 2xx carrying errors
	AvgDurationMs float64     `json:"avgDurationMs" yaml:"avgDurationMs"`
	MinDurationMs int64       `json:"minDurationMs" yaml:"minDurationMs"`
	MaxDurationMs int64       `json:"maxDurationMs" yaml:"maxDurationMs"`
	TotalRespSize int64       `json:"totalResponseSize" yaml:"totalResponseSize"`
	StatusCodes   map[int]int `json:"statusCodes" yaml:"statusCodes"`
	LastCalled    time.Time   `json:"lastCalled" yaml:"lastCalled"`
}

// SuccessRate is the share of calls that got a clean 2xx, in percent
func (s Stats) SuccessRate() float64 {
	if s.TotalCalls == 0 {
		return 0
	}
	return float64(s.SuccessCount) * 100 / float64(s.TotalCalls)
}

// Stats returns per endpoint and operation aggregates, most recently called
// first. Results are cached until the next Save or Clear.
func (m *Manager) Stats() ([]Stats, error) {
	if stats, ok := m.cache.get(m.workspace); ok {
		return stats, nil
	}

	query := `
		WITH status_codes_agg AS (
			SELECT
				url,
				operation_name,
				json_group_object(CAST(status AS TEXT), count) as status_codes_json
			FROM (
				SELECT url, COALESCE(operation_name, '') as operation_name, status, COUNT(*) as count
				FROM query_history
				WHERE workspace = ?
				GROUP BY url, COALESCE(operation_name, ''), status
			)
			GROUP BY url, operation_name
		)
		SELECT
			h.url,
			COALESCE(h.operation_name, '') as op,
			COUNT(*) as total_calls,
			SUM(CASE WHEN h.status >= 200 AND h.status < 300 AND COALESCE(h.error, '') = '' THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN h.status >= 400 THEN 1 ELSE 0 END) as error_count,
			SUM(CASE WHEN h.status = 0 THEN 1 ELSE 0 END) as network_errors,
			SUM(CASE WHEN h.status >= 200 AND h.status < 300 AND COALESCE(h.error, '') != '' THEN 1 ELSE 0 END) as graphql_errors,
			AVG(h.duration_ms) as avg_duration,
			MIN(h.duration_ms) as min_duration,
			MAX(h.duration_ms) as max_duration,
			COALESCE(SUM(h.response_size), 0) as total_resp_size,
			MAX(h.timestamp) as last_called,
			COALESCE(s.status_codes_json, '{}') as status_codes_json
		FROM query_history h
		LEFT JOIN status_codes_agg s ON h.url = s.url AND COALESCE(h.operation_name, '') = s.operation_name
		WHERE h.workspace = ?
		GROUP BY h.url, op
		ORDER BY last_called DESC
	`

	rows, err := m.db.Query(query, m.workspace, m.workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to get history stats: %w", err)
	}
	defer rows.Close()

	var statsList []Stats
	for rows.Next() {
		var (
			s               Stats
			lastCalled      sql.NullString
			statusCodesJSON string
		)

		err := rows.Scan(
			&s.URL,
			&s.OperationName,
			&s.TotalCalls,
			&s.SuccessCount,
			&s.ErrorCount,
			&s.NetworkErrors,
			&s.GraphQLErrors,
			&s.AvgDurationMs,
			&s.MinDurationMs,
			&s.MaxDurationMs,
			&s.TotalRespSize,
			&lastCalled,
			&statusCodesJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}

		if lastCalled.Valid {
			s.LastCalled = parseTimestamp(lastCalled.String)
		}

		s.StatusCodes, err = parseStatusCodes(statusCodesJSON)
		if err != nil {
			return nil, err
		}

		statsList = append(statsList, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	m.cache.set(m.workspace, statsList)
	return statsList, nil
}

// parseStatusCodes reads the {"200": 3} object built by json_group_object
func parseStatusCodes(text string) (map[int]int, error) {
	codes := make(map[int]int)
	if text == "{}" {
		return codes, nil
	}

	var raw map[string]int
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status codes: %w", err)
	}
	for codeStr, count := range raw {
		if code, err := strconv.Atoi(codeStr); err == nil {
			codes[code] = count
		}
	}
	return codes, nil
}
