// Package navigator exposes the page navigator as registry tools.
//
// Tools:
//   - navigator.push, navigator.replace: open a page (locator, title, payload)
//   - navigator.pop, navigator.pop_to_root: go back, optionally with a result
//   - navigator.post_message: message one page, or broadcast without target_id
//   - navigator.get_pages, navigator.get_current_page: snapshots
//   - navigator.set_title, navigator.close: act on one page
//
// Navigator errors are returned as failed results whose Code is the
// navigator's wire code, e.g. "already_at_root".
package navigator
