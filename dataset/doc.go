// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package dataset turns the raw anime CSV into the processed form the index is built from.
//
// The raw file must carry a Name and a sypnopsis column (the source dataset's spelling).
// MAL_ID and Genres are used when present. Rows without a synopsis or title are dropped,
// whitespace is normalized, and each surviving row gets a combined content field:
//
//	Title: <title> Overview: <synopsis> Genres: <genres>
//
// The processed CSV has the columns id, title, genres, synopsis and content.
package dataset
