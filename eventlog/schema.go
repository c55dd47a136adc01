// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

const eventTableSchema = `
CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	campaign BLOB(20) NOT NULL,
	account BLOB(20) NOT NULL,
	kind TEXT NOT NULL,
	day INTEGER NOT NULL,
	amount BLOB,
	time INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS campaignIndex ON event(campaign, day);
CREATE INDEX IF NOT EXISTS accountIndex ON event(account);
`
