/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"encoding/json"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// Structured stored form: a versioned JSON envelope that round-trips the
// Document exactly. The envelope is validated against storedFormSchema before
// decoding; anything that fails validation is treated as legacy plain text
// instead of being rejected, so the editor always gets a valid Document.

const storedFormVersion = 1

// storedFormSchema is the JSON Schema for the structured stored form.
const storedFormSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "blocks"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "blocks": {"type": "array", "items": {"$ref": "#/definitions/block"}}
  },
  "definitions": {
    "block": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"enum": ["scene_heading", "action", "character", "dialogue", "parenthetical", "transition", "dual_dialogue", "dual_dialogue_column"]},
        "runs": {"type": "array", "items": {
          "type": "object",
          "required": ["text"],
          "properties": {"text": {"type": "string"}, "marks": {"type": "integer", "minimum": 0, "maximum": 7}}
        }},
        "id": {"type": "string"},
        "intro": {"enum": ["INT", "EXT", "INT/EXT"]},
        "location": {"type": "string"},
        "time_of_day": {"type": "string"},
        "scene_number": {"type": "string"},
        "character_id": {"type": "string"},
        "extension": {"type": "string"},
        "dual": {"type": "boolean"},
        "children": {"type": "array", "items": {"$ref": "#/definitions/block"}}
      }
    }
  }
}`

var compiledSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(storedFormSchema))
	if err != nil {
		panic("stored form schema does not compile: " + err.Error())
	}
	return s
}()

type wireRun struct {
	Text  string `json:"text"`
	Marks Mark   `json:"marks,omitempty"`
}

type wireBlock struct {
	Type        string      `json:"type"`
	Runs        []wireRun   `json:"runs,omitempty"`
	ID          string      `json:"id,omitempty"`
	Intro       IntroType   `json:"intro,omitempty"`
	Location    string      `json:"location,omitempty"`
	TimeOfDay   string      `json:"time_of_day,omitempty"`
	SceneNumber string      `json:"scene_number,omitempty"`
	CharacterID string      `json:"character_id,omitempty"`
	Extension   string      `json:"extension,omitempty"`
	Dual        bool        `json:"dual,omitempty"`
	Children    []wireBlock `json:"children,omitempty"`
}

type wireDocument struct {
	Version int         `json:"version"`
	Blocks  []wireBlock `json:"blocks"`
}

func toWire(b Block) wireBlock {
	w := wireBlock{
		Type:        b.Type.String(),
		ID:          b.SceneID,
		Intro:       b.Intro,
		Location:    b.Location,
		TimeOfDay:   b.TimeOfDay,
		SceneNumber: b.SceneNumber,
		CharacterID: b.CharacterID,
		Extension:   b.Extension,
		Dual:        b.IsDual,
	}
	for _, r := range b.Runs {
		w.Runs = append(w.Runs, wireRun(r))
	}
	for _, c := range b.Children {
		w.Children = append(w.Children, toWire(c))
	}
	return w
}

func fromWire(w wireBlock) Block {
	b := Block{
		Type:        blockTypeByName[w.Type],
		SceneID:     w.ID,
		Intro:       w.Intro,
		Location:    w.Location,
		TimeOfDay:   w.TimeOfDay,
		SceneNumber: w.SceneNumber,
		CharacterID: w.CharacterID,
		Extension:   w.Extension,
		IsDual:      w.Dual,
	}
	for _, r := range w.Runs {
		b.Runs = append(b.Runs, Run(r))
	}
	for _, c := range w.Children {
		b.Children = append(b.Children, fromWire(c))
	}
	return b
}

// Serialize renders the Document in the structured stored form. This is the
// canonical persistence format; SerializeText exists for legacy consumers.
func Serialize(d Document) string {
	w := wireDocument{Version: storedFormVersion}
	for _, b := range d.Blocks {
		w.Blocks = append(w.Blocks, toWire(b))
	}
	data, err := json.Marshal(w)
	if err != nil {
		// marshal of plain structs cannot fail; keep the contract total anyway
		return SerializeText(d)
	}
	return string(data)
}

// Parse reconstructs a Document from either stored form. It never fails:
// input that is not valid structured form is parsed as plain text.
func Parse(stored string) Document {
	trimmed := strings.TrimSpace(stored)
	if !strings.HasPrefix(trimmed, "{") {
		return ParseText(stored)
	}
	res, err := compiledSchema.Validate(gojsonschema.NewStringLoader(trimmed))
	if err != nil || !res.Valid() {
		return ParseText(stored)
	}
	var w wireDocument
	if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
		return ParseText(stored)
	}
	blocks := make([]Block, 0, len(w.Blocks))
	for _, wb := range w.Blocks {
		blocks = append(blocks, fromWire(wb))
	}
	return Normalize(Document{Blocks: blocks})
}
