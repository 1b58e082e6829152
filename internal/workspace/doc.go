/*
Package workspace implements the persisted tab session model.

A Workspace owns an ordered list of live Tabs plus shared defaults (url,
proxy flag, headers) and three bounded histories: closed tabs, used URLs and
recent headers. Every mutation is written through to a storage.Store field by
field via the state package, so reopening the same namespace restores it.

# Tab lifecycle

	absent -> live (in tabIds, maybe active) -> closed (snapshot in closedTabs)
	       -> reopened (live again, same id) -> erased (Cleanup)

Ids come from a monotonic counter (lastId) and are never reused except when a
closed tab is reopened.

# Storage layout

	<key>-<field>            workspace fields, e.g. graphiql-tabIds
	<key>.tab<id>-<field>    tab fields, e.g. graphiql.tab3-url

Each value is the JSON envelope {"data": <value>}.

# Import and export

Export returns a Snapshot (settings plus every live tab). FromSnapshot rebuilds
a workspace from one; values already stored under the snapshot's key win, so
callers importing over an existing namespace clean it up first.
*/
package workspace
