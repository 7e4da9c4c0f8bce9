package main

import (
	"testing"

	"gopkg.in/yaml.v3"

	"cifinalize/internal/pendingdb"
	"cifinalize/internal/testsupport"
)

func TestInspectYAML(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WritePending(t, env.cfg, pendingdb.VersionLegacy,
		pendingdb.Entry{TitleID: 0x0004000000123500, CommonKeyIndex: 1},
		pendingdb.Entry{TitleID: 0x0004000000123600, HasSeed: true, Seed: testsupport.Seed(0)},
	)

	out, _, err := env.run(t, "inspect", "--format", "yaml")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var view inspectView
	if err := yaml.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out)
	}
	if view.Path != path || view.Version != pendingdb.VersionLegacy || len(view.Entries) != 2 {
		t.Fatalf("unexpected view: %#v", view)
	}
	first := view.Entries[0]
	if first.TitleID != "0004000000123500" || first.CommonKeyIndex == nil || *first.CommonKeyIndex != 1 {
		t.Fatalf("unexpected first entry: %#v", first)
	}
	if second := view.Entries[1]; !second.HasSeed || second.Seed != "000102030405060708090a0b0c0d0e0f" {
		t.Fatalf("unexpected second entry: %#v", second)
	}
	if !testsupport.Exists(t, path) {
		t.Fatal("inspect must not remove the pending file")
	}
}

func TestInspectTable(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WritePending(t, env.cfg, pendingdb.VersionAligned, pendingdb.Entry{TitleID: 0x0004000000123500})

	out, _, err := env.run(t, "inspect")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "Version: 3")
	requireContains(t, out, "0004000000123500")
}

func TestInspectRewrite(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStrictVersion(3))
	path := testsupport.WritePending(t, env.cfg, pendingdb.VersionPacked, pendingdb.Entry{TitleID: 0x0004000000123500})

	if _, _, err := env.run(t, "inspect"); err == nil {
		t.Fatal("strict policy should reject version 2 for plain inspect")
	}
	out, _, err := env.run(t, "inspect", "--rewrite", "3")
	if err != nil {
		t.Fatalf("inspect --rewrite: %v", err)
	}
	requireContains(t, out, "from version 2 to version 3")
	if !testsupport.Exists(t, path+".bak") {
		t.Fatal("expected a backup of the original file")
	}

	db, err := pendingdb.Loader{Policy: pendingdb.StrictPolicy(3)}.Load(path)
	if err != nil {
		t.Fatalf("load rewritten file: %v", err)
	}
	if len(db.Entries) != 1 || db.Entries[0].TitleID != 0x0004000000123500 {
		t.Fatalf("unexpected entries: %#v", db.Entries)
	}
}

func TestInspectUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WritePending(t, env.cfg, pendingdb.VersionAligned)
	if _, _, err := env.run(t, "inspect", "--format", "xml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}
