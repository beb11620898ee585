// Package fplugin is the backend of an editor plugin that indexes source
// repositories with ctags and cscope, loads those indexes into the editor,
// finds files by pattern and runs shell commands with a timeout.
//
// # Pipeline
//
// Every operation starts from a directory supplied by the editor:
//
//  1. Locate: walk upward (at most root.max_depth directories) for a .git
//     entry. Without one, the start directory itself is the repository.
//
//  2. Derive: the repository's artifacts live in
//     <base_dir>/<first 16 hex chars of SHA-224(root)>, ~/.fplugin_tag by
//     default.
//
//  3. Build or load: [Engine.BuildIndex] lists source files, writes
//     tags.files and cscope.files and runs the tags and xref passes (in
//     parallel by default). [Engine.LoadIndex] registers the resulting tags
//     and cscope.out files with the editor.
//
// # Usage
//
//	cfg, err := config.Load(config.New(), "")
//	if err != nil { ... }
//	e, err := fplugin.New(cfg, host)
//	if err != nil { ... }
//	defer e.Close()
//
//	res, err := e.BuildIndex(ctx, cwd)
//	err = e.LoadIndex(ctx, cwd)
//
// # Host
//
// The editor is reached only through the [Host] interface: prompts, opening
// files, registering indexes and displaying messages. cmd/fplugin provides a
// terminal host and a host that prints Vim Ex commands.
//
// # Catalog
//
// Builds are recorded in a SQLite catalog (<base_dir>/catalog.db). It lets
// [Engine.LoadIndex] tell an index that was never built apart from one whose
// build failed, and backs [Engine.Status] and [Engine.Repositories]. The
// catalog is advisory: when it cannot be opened or written the Engine logs a
// warning and carries on.
//
// # Concurrency
//
// Cache directories are not locked. Two sessions building the same
// repository at once race on its artifacts and the last writer wins.
package fplugin
