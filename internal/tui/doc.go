/*
Package tui implements the terminal workspace.

# Layout

A tab bar and the active tab's endpoint sit above two panes: the editor on
the left holds the tab's query (or its variables, see toggle_variables), the
result pane on the right shows the latest output of the tab. The output is
one of:
  - a formatted preview of the query, refreshed once typing pauses
  - the response of the last run
  - the SDL rebuilt from the endpoint's introspection

# Asynchronous work

Formatting, running and introspection each go through a taskqueue.Queue.
The command started for a task carries the generation returned by
Queue.Start; Update commits the outcome only when that generation is still
the latest, so a slow answer never overwrites a newer one. Every tab has
its own format, run and introspection queues, so switching tabs never
drops another tab's work.

# Persistence

Every edit is written through to the workspace immediately, so the store
always holds what is on screen. Results, previews and schemas are not
persisted; runs are recorded in the query history when one is configured.

# Keybind System

Keys resolve through a keybinds.Registry in the context of the focused pane
(editor or result), the URL picker, a prompt or the help screen. Keys with
no binding in the editor are typed into it.
*/
package tui
