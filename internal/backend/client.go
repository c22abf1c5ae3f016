/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend speaks to the external layout engine. The engine owns exact
// line breaking for the paginated format; this client only ships structurally
// typed payloads across the wire and maps authoritative results back onto the
// fallback estimator's State shape. Requests carry a correlation id and a
// content version; gating on the version replaces any cancellation primitive.
package backend

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"goscreenwriter/internal/paginate"
	"goscreenwriter/internal/script"
)

// Client is a minimal HTTP client for the layout engine API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new layout engine client. baseURL may include a
// trailing slash; it will be normalized.
func NewClient(baseURL string, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// BlockSummary is the engine-agnostic projection of one block.
type BlockSummary struct {
	Index     int    `json:"index"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Character string `json:"character,omitempty"`
}

// LayoutConfig ships the format configuration alongside the elements.
type LayoutConfig struct {
	LinesPerPage     int `json:"lines_per_page"`
	ActionCols       int `json:"action_cols"`
	DialogueCols     int `json:"dialogue_cols"`
	MinDialogueLines int `json:"min_dialogue_lines"`
}

// LayoutRequest is the request payload for a pagination pass.
type LayoutRequest struct {
	RequestID string         `json:"request_id"`
	Version   uint64         `json:"version"`
	Elements  []BlockSummary `json:"elements"`
	Config    LayoutConfig   `json:"config"`
}

// Continuation describes a dialogue split at a page boundary.
type Continuation struct {
	Character   string `json:"character"`
	SplitBlock  int    `json:"split_block"`
	SplitOffset int    `json:"split_offset"`
}

// LayoutPage is one authoritative page: which elements it holds and where it
// starts relative to the submitted block list.
type LayoutPage struct {
	Identifier   string        `json:"identifier"`
	Elements     []int         `json:"elements"`
	StartBlock   int           `json:"start_block"`
	StartOffset  int           `json:"start_offset"`
	Continuation *Continuation `json:"continuation,omitempty"`
}

// LayoutStats summarizes the engine's pass.
type LayoutStats struct {
	PageCount  int `json:"page_count"`
	TotalLines int `json:"total_lines"`
}

// LayoutResult is the engine's response, keyed back to the request.
type LayoutResult struct {
	RequestID string       `json:"request_id"`
	Version   uint64       `json:"version"`
	Pages     []LayoutPage `json:"pages"`
	Stats     LayoutStats  `json:"stats"`
}

// NewRequest projects a document plus configuration into a LayoutRequest
// tagged with a fresh correlation id and the document's content version.
func NewRequest(d script.Document, cfg LayoutConfig) LayoutRequest {
	req := LayoutRequest{
		RequestID: correlationID(),
		Version:   paginate.ContentVersion(d),
		Config:    cfg,
	}
	for i, b := range d.Blocks {
		s := BlockSummary{Index: i, Type: b.Type.String(), Text: b.Text()}
		if b.Type == script.Character || b.Type == script.Dialogue {
			s.Character = b.CharacterID
		}
		req.Elements = append(req.Elements, s)
	}
	return req
}

// Paginate submits the request and waits for the engine's response.
func (c *Client) Paginate(ctx context.Context, req LayoutRequest) (LayoutResult, error) {
	var res LayoutResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/layout", req, &res); err != nil {
		return LayoutResult{}, err
	}
	return res, nil
}

// ToState converts an authoritative result into a pagination State. Page one
// produces no break; every later page contributes the break that starts it.
func ToState(res LayoutResult) paginate.State {
	st := paginate.State{Source: paginate.SourceExternal, Version: res.Version, PageCount: res.Stats.PageCount}
	if st.PageCount == 0 {
		st.PageCount = len(res.Pages)
	}
	for i, p := range res.Pages {
		if i == 0 {
			continue
		}
		br := paginate.PageBreak{
			Position:   script.Position{Block: p.StartBlock, Offset: p.StartOffset},
			PageNumber: i + 1,
			PageID:     p.Identifier,
			Kind:       paginate.KindNormal,
		}
		if p.Continuation != nil {
			br.Kind = paginate.KindDialogueSplit
			br.CharacterName = p.Continuation.Character
			br.Position = script.Position{Block: p.Continuation.SplitBlock, Offset: p.Continuation.SplitOffset}
		}
		st.Breaks = append(st.Breaks, br)
	}
	return st
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), &payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("engine %s %s: %s", method, u.Path, resp.Status)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// correlationID returns a short random hex id for request/response pairing.
func correlationID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
