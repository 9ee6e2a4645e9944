package stublib

import "github.com/rexlang/scriptc/internal/stub"

// ImportModule deep-clones every stub owned (directly or
// transitively) by a module compiled in a different Library (e.g. one
// loaded from a manifest artifact) into this Library, remapping IDs
// as it goes and tagging every cloned stub FlagImportDependency. It
// returns the new Module's ID in this Library.
//
// Cloning rather than sharing pointers keeps each Library's ID space
// self-contained, which is what makes artifact serialization and
// concurrent per-file building simple: a Library never holds a stub
// it did not allocate.
func (l *Library) ImportModule(src *Library, moduleID stub.ID) stub.ID {
	remap := make(map[stub.ID]stub.ID)
	newModuleID := l.importStub(src, moduleID, remap)
	l.fixupRefs(src, remap)
	if m := l.Module(newModuleID); m != nil {
		m.Flags = m.Flags.With(stub.FlagImportDependency)
	}
	return newModuleID
}

// importStub clones one stub (if not already cloned) and recursively
// clones everything it owns, returning the new ID. remap is shared
// across the whole closure so repeated references (e.g. a class
// referenced from two TypeRefs) clone only once.
func (l *Library) importStub(src *Library, id stub.ID, remap map[stub.ID]stub.ID) stub.ID {
	if !id.Valid() {
		return stub.NoID
	}
	if newID, ok := remap[id]; ok {
		return newID
	}

	switch o := src.all[id].(type) {
	case *stub.Module:
		nm := &stub.Module{Header: o.Header, Name_: o.Name_, Members: make(map[string]stub.ID)}
		nm.Flags = nm.Flags.With(stub.FlagImportDependency)
		remap[id] = 0 // placeholder to break cycles; fixed below
		newID := l.registerClone(nm)
		remap[id] = newID
		for _, fileID := range o.Files {
			nf := l.importStub(src, fileID, remap)
			nm.Files = append(nm.Files, nf)
		}
		for name, memberID := range o.Members {
			nm.Members[name] = l.importStub(src, memberID, remap)
		}
		l.modules = append(l.modules, newID)
		return newID

	case *stub.File:
		nf := &stub.File{Header: o.Header, DepotPath: o.DepotPath, AbsolutePath: o.AbsolutePath}
		nf.Flags = nf.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(nf)
		remap[id] = newID
		for _, topID := range o.TopLevel {
			nf.TopLevel = append(nf.TopLevel, l.importStub(src, topID, remap))
		}
		l.files = append(l.files, newID)
		return newID

	case *stub.Class:
		nc := &stub.Class{Header: o.Header, BaseName: o.BaseName, ParentName: o.ParentName,
			EngineImportAlias: o.EngineImportAlias, MembersByName: make(map[string]stub.ID)}
		nc.Flags = nc.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(nc)
		remap[id] = newID
		nc.Base = l.importStub(src, o.Base, remap)
		for name, memberID := range o.MembersByName {
			cloned := l.importStub(src, memberID, remap)
			nc.Members = append(nc.Members, cloned)
			nc.MembersByName[name] = cloned
		}
		l.classes = append(l.classes, newID)
		return newID

	case *stub.Enum:
		ne := &stub.Enum{Header: o.Header, EngineImportAlias: o.EngineImportAlias, OptionsByName: make(map[string]stub.ID)}
		ne.Flags = ne.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(ne)
		remap[id] = newID
		for _, optID := range o.Options {
			cloned := l.importStub(src, optID, remap)
			ne.Options = append(ne.Options, cloned)
			opt := src.EnumOption(optID)
			ne.OptionsByName[opt.Name] = cloned
		}
		l.enums = append(l.enums, newID)
		return newID

	case *stub.EnumOption:
		no := &stub.EnumOption{Header: o.Header, Value: o.Value, HasUserAssignedValue: o.HasUserAssignedValue}
		no.Flags = no.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(no)
		remap[id] = newID
		return newID

	case *stub.Property:
		np := &stub.Property{Header: o.Header, Default: o.Default}
		np.Flags = np.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(np)
		remap[id] = newID
		np.Type = l.importStub(src, o.Type, remap)
		return newID

	case *stub.Function:
		nfn := &stub.Function{Header: o.Header, OperatorSymbol: o.OperatorSymbol,
			OpcodeName: o.OpcodeName, AliasName: o.AliasName, CastCost: o.CastCost, CastExplicit: o.CastExplicit}
		nfn.Flags = nfn.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(nfn)
		remap[id] = newID
		nfn.ReturnType = l.importStub(src, o.ReturnType, remap)
		for _, argID := range o.Args {
			nfn.Args = append(nfn.Args, l.importStub(src, argID, remap))
		}
		nfn.BaseFunction = l.importStub(src, o.BaseFunction, remap)
		l.functions = append(l.functions, newID)
		return newID

	case *stub.FunctionArg:
		na := &stub.FunctionArg{Header: o.Header, Default: o.Default, Index: o.Index}
		na.Flags = na.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(na)
		remap[id] = newID
		na.Type = l.importStub(src, o.Type, remap)
		return newID

	case *stub.Constant:
		ncst := &stub.Constant{Header: o.Header, Value: o.Value}
		ncst.Flags = ncst.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(ncst)
		remap[id] = newID
		ncst.Type = l.importStub(src, o.Type, remap)
		l.constants = append(l.constants, newID)
		return newID

	case *stub.TypeName:
		nt := &stub.TypeName{Header: o.Header}
		nt.Flags = nt.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(nt)
		remap[id] = newID
		nt.Aliased = l.importStub(src, o.Aliased, remap)
		l.typeNames = append(l.typeNames, newID)
		return newID

	case *stub.TypeRef:
		nr := &stub.TypeRef{Header: o.Header, QualifiedName: o.QualifiedName}
		nr.Flags = nr.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(nr)
		remap[id] = newID
		nr.Context = l.importStub(src, o.Context, remap)
		nr.Resolved = l.importStub(src, o.Resolved, remap)
		return newID

	case *stub.TypeDecl:
		ntd := &stub.TypeDecl{Header: o.Header, Meta: o.Meta, Engine: o.Engine, Size: o.Size}
		if ntd.Meta == stub.MetaEngine {
			// Engine primitives are canonicalized per-Library; route
			// through CreateEngineType instead of cloning a duplicate.
			newID := l.CreateEngineType(o.Engine)
			remap[id] = newID
			return newID
		}
		ntd.Flags = ntd.Flags.With(stub.FlagImportDependency)
		newID := l.registerClone(ntd)
		remap[id] = newID
		ntd.Ref = l.importStub(src, o.Ref, remap)
		ntd.Inner = l.importStub(src, o.Inner, remap)
		return newID

	default:
		return stub.NoID
	}
}

// registerClone allocates a fresh ID for a clone and stores it,
// setting the cloned struct's embedded Header.ID to that ID. Header.Owner
// still holds the source library's ID until fixupRefs remaps it.
func (l *Library) registerClone(v any) stub.ID {
	l.mu.Lock()
	id := l.alloc()
	l.mu.Unlock()
	switch o := v.(type) {
	case *stub.Module:
		o.ID = id
	case *stub.File:
		o.ID = id
	case *stub.Class:
		o.ID = id
	case *stub.Enum:
		o.ID = id
	case *stub.EnumOption:
		o.ID = id
	case *stub.Property:
		o.ID = id
	case *stub.Function:
		o.ID = id
	case *stub.FunctionArg:
		o.ID = id
	case *stub.Constant:
		o.ID = id
	case *stub.TypeName:
		o.ID = id
	case *stub.TypeRef:
		o.ID = id
	case *stub.TypeDecl:
		o.ID = id
	}
	l.put(id, v)
	return id
}

// fixupRefs rewrites the Owner field of every freshly-cloned stub from
// its src-space ID to this Library's remapped ID (an ID with no remap
// entry is kept as is). The other ID fields (Base, Context, Resolved,
// Type, Args, …) are already remapped by importStub as it clones;
// Owner is copied verbatim in the cloned Header and is fixed up only
// here.
func (l *Library) fixupRefs(src *Library, remap map[stub.ID]stub.ID) {
	remapID := func(id stub.ID) stub.ID {
		if !id.Valid() {
			return stub.NoID
		}
		if newID, ok := remap[id]; ok {
			return newID
		}
		return id
	}
	for oldID, newID := range remap {
		if newID == 0 {
			continue
		}
		if hdr := l.Header(newID); hdr != nil {
			if srcHdr := src.Header(oldID); srcHdr != nil {
				hdr.Owner = remapID(srcHdr.Owner)
			}
		}
	}
}
