package seeder

import (
	"fmt"

	"github.com/hayroll-dev/hayroll/internal/linemapper"
	"github.com/hayroll-dev/hayroll/internal/texteditor"
)

// task is one queued instrumentation edit plus enough of its original span
// to run the placeholder-overlap filter Seeder.hpp's run applies before
// committing (InstrumentationTask).
type task struct {
	edit          texteditor.Edit
	eraseOriginal bool
	line, col     int // the tagged span's begin, shared by every task of the span (an EOF append has edit.Line == -1)
	lineEnd, colEnd int
}

func normalizeRange(lineBegin, colBegin, lineEnd, colEnd int) (int, int, int, int) {
	if isBefore(lineEnd, colEnd, lineBegin, colBegin) {
		return lineEnd, colEnd, lineBegin, colBegin
	}
	return lineBegin, colBegin, lineEnd, colEnd
}

func isBefore(l1, c1, l2, c2 int) bool {
	return l1 < l2 || (l1 == l2 && c1 < c2)
}

// filterOverlappedByErasing drops any non-protected task whose span
// overlaps an erasing task's span, so invocation/body tags never land
// inside text a placeholder conditional region is about to blank out
// (Seeder.hpp run's erase-precedence filter, spec §9).
func filterOverlappedByErasing(tasks []task) []task {
	var erasing []task
	for _, t := range tasks {
		if t.eraseOriginal && t.line >= 0 && t.lineEnd >= 0 {
			erasing = append(erasing, t)
		}
	}
	if len(erasing) == 0 {
		return tasks
	}
	out := tasks[:0:0]
	for _, a := range tasks {
		if a.edit.NonErasable || a.line < 0 {
			out = append(out, a)
			continue
		}
		aLineEnd, aColEnd := a.line, a.col
		if a.eraseOriginal {
			aLineEnd, aColEnd = a.lineEnd, a.colEnd
		}
		aLineBegin, aColBegin, aLineEndN, aColEndN := normalizeRange(a.line, a.col, aLineEnd, aColEnd)
		drop := false
		for _, b := range erasing {
			bLineBegin, bColBegin, bLineEnd, bColEnd := normalizeRange(b.line, b.col, b.lineEnd, b.colEnd)
			aEndBeforeBBegin := isBefore(aLineEndN, aColEndN, bLineBegin, bColBegin)
			bEndBeforeABegin := isBefore(bLineEnd, bColEnd, aLineBegin, aColBegin)
			if !(aEndBeforeBBegin || bEndBeforeABegin) {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, a)
		}
	}
	return out
}

// genInstrumentationTasks builds the tagged-region edits for one span,
// following the templates spec §4.8 names (expression rvalue/lvalue,
// statement, declaration), grounded in Seeder.hpp's genInstrumentationTasks.
func genInstrumentationTasks(
	astKind string,
	isLvalue bool, // meaningful only when astKind == "Expr"
	createScope bool, // meaningful only when astKind == "Stmt"/"Stmts"
	beginLine, beginCol, endLine, endCol int,
	eraseOriginal bool,
	tagBeginLiteral string,
	tagEndLiteral string, // set only for Stmt/Stmts
	spelling string,
	priorityLeft int,
) []task {
	priorityRight := -priorityLeft

	mk := func(line, col int, text string, priority int, protect bool) task {
		return task{
			edit:          texteditor.Edit{Kind: texteditor.Insert, Line: line, Col: col, Text: text, Priority: priority, NonErasable: protect},
			eraseOriginal: eraseOriginal,
			line:          beginLine, col: beginCol, lineEnd: endLine, colEnd: endCol,
		}
	}

	switch astKind {
	case "Expr":
		if isLvalue {
			return []task{
				mk(beginLine, beginCol, "(*((*"+tagBeginLiteral+")?(&(", priorityLeft, eraseOriginal),
				mk(endLine, endCol, ")):((__typeof__("+spelling+")*)(0))))", priorityRight, eraseOriginal),
			}
		}
		return []task{
			mk(beginLine, beginCol, "((*"+tagBeginLiteral+")?(", priorityLeft, eraseOriginal),
			mk(endLine, endCol, "):(*(__typeof__("+spelling+")*)(0)))", priorityRight, eraseOriginal),
		}
	case "Stmt", "Stmts":
		open, close := "", ""
		if createScope {
			open, close = "{", "}"
		}
		return []task{
			mk(beginLine, beginCol, open+"*"+tagBeginLiteral+";", priorityLeft, eraseOriginal),
			mk(endLine, endCol, ";*"+tagEndLiteral+";"+close, priorityRight, eraseOriginal),
		}
	case "Decl", "Decls":
		uid := fmt.Sprintf("%d_%d_%d_%d_%08x", beginLine, beginCol, endLine, endCol, fnv32(tagBeginLiteral))
		t := mk(-1, 0, fmt.Sprintf(" const char * HAYROLL_TAG_FOR_%s = %s;", uid, tagBeginLiteral), 0, eraseOriginal)
		return []task{t}
	}
	return nil
}

func fnv32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// genBodyInstrumentationTasks tags one invocation or argument body
// (Seeder.hpp's genBodyInstrumentationTasks).
func genBodyInstrumentationTasks(
	locBegin, locEnd string,
	isArg bool,
	argNames []string,
	astKind string,
	isLvalue, createScope bool,
	name, locRefBegin, spelling, premise string,
	canBeFn bool,
	inverseLineMap []linemapper.InverseEntry,
) ([]task, error) {
	_, lineBegin, colBegin, err := parseLocation(locBegin)
	if err != nil {
		return nil, fmt.Errorf("seeder: invocation location: %w", err)
	}
	_, lineEnd, colEnd, err := parseLocation(locEnd)
	if err != nil {
		return nil, fmt.Errorf("seeder: invocation end location: %w", err)
	}

	srcLocBegin := cuLocToSrcLoc(locBegin, inverseLineMap)
	srcLocEnd := cuLocToSrcLoc(locEnd, inverseLineMap)
	srcLocRefBegin := cuLocToSrcLoc(locRefBegin, inverseLineMap)
	cuLnColBegin := locToLnCol(locBegin)
	cuLnColEnd := locToLnCol(locEnd)

	tagBegin := InvocationTag{
		Hayroll: true, SeedType: "invocation", Begin: true,
		IsArg: isArg, ArgNames: argNames, ASTKind: astKind, IsLvalue: isLvalue,
		Name: name, LocBegin: srcLocBegin, LocEnd: srcLocEnd,
		CuLnColBegin: cuLnColBegin, CuLnColEnd: cuLnColEnd,
		LocRefBegin: srcLocRefBegin, Premise: premise, CanBeFn: canBeFn,
	}
	tagEnd := tagBegin
	tagEnd.Begin = false

	beginLit, err := stringLiteral(tagBegin)
	if err != nil {
		return nil, err
	}
	endLit, err := stringLiteral(tagEnd)
	if err != nil {
		return nil, err
	}

	return genInstrumentationTasks(
		astKind, isLvalue, createScope,
		lineBegin, colBegin, lineEnd, colEnd,
		false, // body instrumentation never erases the original
		beginLit, endLit, spelling,
		1, // priorityLeft: prefer inside
	), nil
}

// genArgInstrumentationTasks tags one macro-invocation argument
// (Seeder.hpp's genArgInstrumentationTasks).
func genArgInstrumentationTasks(arg ArgSummary, inverseLineMap []linemapper.InverseEntry) ([]task, error) {
	return genBodyInstrumentationTasks(
		arg.ActualArgLocBegin, arg.ActualArgLocEnd,
		true, nil,
		arg.ASTKind, arg.IsLValue, false,
		arg.Name, arg.InvocationLocation, arg.Spelling, "",
		false,
		inverseLineMap,
	)
}

// genInvocationInstrumentationTasks tags an invocation's body and its
// arguments (Seeder.hpp's genInvocationInstrumentationTasks).
func genInvocationInstrumentationTasks(inv InvocationSummary, inverseLineMap []linemapper.InverseEntry) ([]task, error) {
	var tasks []task
	for _, arg := range inv.Args {
		argTasks, err := genArgInstrumentationTasks(arg, inverseLineMap)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, argTasks...)
	}

	argNames := make([]string, len(inv.Args))
	for i, arg := range inv.Args {
		argNames[i] = arg.Name
	}

	invTasks, err := genBodyInstrumentationTasks(
		inv.InvocationLocation, inv.InvocationLocationEnd,
		false, argNames,
		inv.ASTKind, inv.IsLValue, !inv.IsInvokedInStmtBlock,
		inv.Name, inv.DefinitionLocation, inv.Spelling, inv.Premise,
		inv.CanBeFn(),
		inverseLineMap,
	)
	if err != nil {
		return nil, err
	}
	return append(tasks, invTasks...), nil
}

// genConditionalInstrumentationTasks tags one conditional (#if/#elif/#else)
// region, substituting the enclosing if-group's own span and erasing the
// original text when the region is a degenerate placeholder
// (Seeder.hpp's genConditionalInstrumentationTasks; spec §9 Open Question).
func genConditionalInstrumentationTasks(r RangeSummary, createScope bool, inverseLineMap []linemapper.InverseEntry) ([]task, error) {
	_, lineBegin, colBegin, err := parseLocation(r.Location)
	if err != nil {
		return nil, fmt.Errorf("seeder: range location: %w", err)
	}
	_, lineEnd, colEnd, err := parseLocation(r.LocationEnd)
	if err != nil {
		return nil, fmt.Errorf("seeder: range end location: %w", err)
	}

	srcLocBegin := cuLocToSrcLoc(r.Location, inverseLineMap)
	srcLocEnd := cuLocToSrcLoc(r.LocationEnd, inverseLineMap)
	cuLnColBegin := locToLnCol(r.Location)
	cuLnColEnd := locToLnCol(r.LocationEnd)

	ifGroupLnBegin, ifGroupColBegin, err := parseLnCol(r.ExtraInfo.IfGroupLnColBegin)
	if err != nil {
		return nil, fmt.Errorf("seeder: if-group begin: %w", err)
	}
	ifGroupLnEnd, ifGroupColEnd, err := parseLnCol(r.ExtraInfo.IfGroupLnColEnd)
	if err != nil {
		return nil, fmt.Errorf("seeder: if-group end: %w", err)
	}

	tagBegin := ConditionalTag{
		Hayroll: true, SeedType: "conditional", Begin: true,
		ASTKind: r.ASTKind, IsLvalue: r.IsLValue,
		LocBegin: srcLocBegin, LocEnd: srcLocEnd,
		CuLnColBegin: cuLnColBegin, CuLnColEnd: cuLnColEnd,
		LocRefBegin: r.ReferenceLocation, IsPlaceholder: r.IsPlaceholder,
		Premise: r.ExtraInfo.Premise, MergedVariants: []string{srcLocBegin},
	}
	tagEnd := tagBegin
	tagEnd.Begin = false

	beginLit, err := stringLiteral(tagBegin)
	if err != nil {
		return nil, err
	}
	endLit, err := stringLiteral(tagEnd)
	if err != nil {
		return nil, err
	}

	taggedLineBegin, taggedColBegin, taggedLineEnd, taggedColEnd := lineBegin, colBegin, lineEnd, colEnd
	if r.IsPlaceholder {
		taggedLineBegin, taggedColBegin = ifGroupLnBegin, ifGroupColBegin
		taggedLineEnd, taggedColEnd = ifGroupLnEnd, ifGroupColEnd
	}

	var isLvaluePtr bool
	if r.ASTKind == "Expr" {
		isLvaluePtr = r.IsLValue
	}

	return genInstrumentationTasks(
		r.ASTKind, isLvaluePtr, createScope,
		taggedLineBegin, taggedColBegin, taggedLineEnd, taggedColEnd,
		r.IsPlaceholder, // erase original when placeholder, so the tag isn't excluded from compilation
		beginLit, endLit, r.Spelling,
		-ifGroupLnEnd, // priorityLeft: prefer outside, outer #if groups win over inner
	), nil
}
