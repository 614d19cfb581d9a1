// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	height integer not null,
	time integer not null,
	eventIndex integer not null,
	contract blob(20) not null,
	type text not null,
	attrs text
);

CREATE INDEX if not exists heightIndex on event(height);
CREATE INDEX if not exists timeIndex on event(time);
CREATE INDEX if not exists contractIndex on event(contract);
CREATE INDEX if not exists typeIndex on event(type);
`
