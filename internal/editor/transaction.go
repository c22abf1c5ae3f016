/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor applies user actions to the document as atomic transactions.
// Each action builds a Transaction, the pipeline steps rewrite it in order,
// and the session commits the result. Everything up to commit is pure; all
// side effects (callbacks, pagination, extraction) hang off the commit.
package editor

import "goscreenwriter/internal/script"

// Transaction is one pending atomic change: the document and selection as
// they will stand after commit.
type Transaction struct {
	Doc script.Document
	Sel script.Selection

	// DocChanged distinguishes content edits from pure selection moves.
	DocChanged bool

	// TextInserted is true for keystroke-style transactions; only those are
	// examined by the trigger rules.
	TextInserted bool

	// HeadingSeeded is set when a rule supplied scene heading attributes in
	// this transaction, so later steps must not reset them to defaults.
	HeadingSeeded bool
}

// Step rewrites a transaction. old is the document before the edit; steps
// must not mutate either document.
type Step func(tx Transaction, old script.Document) Transaction

// Pipeline is an ordered sequence of steps.
type Pipeline []Step

// Run threads tx through every step.
func (p Pipeline) Run(tx Transaction, old script.Document) Transaction {
	for _, step := range p {
		tx = step(tx, old)
	}
	return tx
}
