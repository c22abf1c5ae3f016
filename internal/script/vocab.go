/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// Fixed vocabularies shared by the input rules and the autocomplete resolver.

// ScenePrefixes are the recognized scene heading triggers, in display form.
var ScenePrefixes = []string{"INT. ", "EXT. ", "INT/EXT. ", "I/E. "}

// TransitionKeywords are the recognized transition triggers.
var TransitionKeywords = []string{
	"CUT TO:",
	"FADE TO:",
	"FADE IN:",
	"FADE OUT.",
	"DISSOLVE TO:",
	"SMASH CUT TO:",
	"MATCH CUT TO:",
	"TIME CUT TO:",
}

// TimesOfDay is the fixed time-of-day vocabulary for scene headings.
var TimesOfDay = []string{
	"DAY", "NIGHT", "DAWN", "DUSK", "MORNING", "AFTERNOON", "EVENING",
	"CONTINUOUS", "LATER", "MOMENTS LATER", "SAME",
}
