package stublib

import (
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

// The Create* methods are called by the file builder while walking a
// file's token stream, under the Library's lock so that multiple
// files can be parsed concurrently.

func (l *Library) CreateModule(name string, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	m := &stub.Module{
		Header:  stub.Header{ID: id, Kind: stub.KindModule, Name: l.Arena.Intern(name), Pos: pos},
		Name_:   l.Arena.Intern(name),
		Members: make(map[string]stub.ID),
	}
	l.put(id, m)
	l.modules = append(l.modules, id)
	return id
}

func (l *Library) CreateFile(module stub.ID, depotPath, absPath string, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	f := &stub.File{
		Header:       stub.Header{ID: id, Kind: stub.KindFile, Owner: module, Name: l.Arena.Intern(depotPath), Pos: pos},
		DepotPath:    depotPath,
		AbsolutePath: absPath,
	}
	l.put(id, f)
	l.files = append(l.files, id)
	if m := l.Module(module); m != nil {
		m.Files = append(m.Files, id)
	}
	return id
}

func (l *Library) CreateModuleImport(file stub.ID, qualifiedName string, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	imp := &stub.ModuleImport{
		Header: stub.Header{ID: id, Kind: stub.KindModuleImport, Owner: file, Name: l.Arena.Intern(qualifiedName), Pos: pos},
	}
	l.put(id, imp)
	l.imports = append(l.imports, id)
	if f := l.File(file); f != nil {
		f.TopLevel = append(f.TopLevel, id)
	}
	return id
}

func (l *Library) CreateClass(owner stub.ID, name string, isStruct bool, baseName string, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	var flags stub.Flags
	if isStruct {
		flags = flags.With(stub.FlagStruct)
	}
	c := &stub.Class{
		Header:        stub.Header{ID: id, Kind: stub.KindClass, Owner: owner, Name: l.Arena.Intern(name), Pos: pos, Flags: flags},
		BaseName:      baseName,
		MembersByName: make(map[string]stub.ID),
	}
	l.put(id, c)
	l.classes = append(l.classes, id)
	l.attachToOwner(owner, id, name)
	return id
}

func (l *Library) CreateEnum(owner stub.ID, name string, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	e := &stub.Enum{
		Header:        stub.Header{ID: id, Kind: stub.KindEnum, Owner: owner, Name: l.Arena.Intern(name), Pos: pos},
		OptionsByName: make(map[string]stub.ID),
	}
	l.put(id, e)
	l.enums = append(l.enums, id)
	l.attachToOwner(owner, id, name)
	return id
}

func (l *Library) CreateEnumOption(enum stub.ID, name string, value int64, userAssigned bool, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	var flags stub.Flags
	if userAssigned {
		flags = flags.With(stub.FlagUserAssignedValue)
	}
	opt := &stub.EnumOption{
		Header:               stub.Header{ID: id, Kind: stub.KindEnumOption, Owner: enum, Name: l.Arena.Intern(name), Pos: pos, Flags: flags},
		Value:                value,
		HasUserAssignedValue: userAssigned,
	}
	l.put(id, opt)
	if e := l.Enum(enum); e != nil {
		e.Options = append(e.Options, id)
		if _, dup := e.OptionsByName[name]; dup {
			l.reportError("STB006", pos, "duplicate enum option %q", name)
		}
		e.OptionsByName[name] = id
	}
	return id
}

func (l *Library) CreateProperty(owner stub.ID, name string, typeDecl stub.ID, def *stub.ConstantValue, pos token.Pos, flags stub.Flags) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	p := &stub.Property{
		Header:  stub.Header{ID: id, Kind: stub.KindProperty, Owner: owner, Name: l.Arena.Intern(name), Pos: pos, Flags: flags},
		Type:    typeDecl,
		Default: def,
	}
	l.put(id, p)
	l.attachToOwner(owner, id, name)
	return id
}

func (l *Library) CreateFunction(owner stub.ID, name, aliasName string, returnType stub.ID, pos token.Pos, flags stub.Flags) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	f := &stub.Function{
		Header:     stub.Header{ID: id, Kind: stub.KindFunction, Owner: owner, Name: l.Arena.Intern(name), Pos: pos, Flags: flags},
		ReturnType: returnType,
		AliasName:  aliasName,
	}
	l.put(id, f)
	l.functions = append(l.functions, id)
	l.attachToOwner(owner, id, name)
	return id
}

func (l *Library) CreateFunctionArg(fn stub.ID, name string, typeDecl stub.ID, def *stub.ConstantValue, index int, pos token.Pos, flags stub.Flags) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	a := &stub.FunctionArg{
		Header:  stub.Header{ID: id, Kind: stub.KindFunctionArg, Owner: fn, Name: l.Arena.Intern(name), Pos: pos, Flags: flags},
		Type:    typeDecl,
		Default: def,
		Index:   index,
	}
	l.put(id, a)
	if f := l.Function(fn); f != nil {
		f.Args = append(f.Args, id)
	}
	return id
}

func (l *Library) CreateConstant(owner stub.ID, name string, typeDecl stub.ID, value *stub.ConstantValue, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	c := &stub.Constant{
		Header: stub.Header{ID: id, Kind: stub.KindConstant, Owner: owner, Name: l.Arena.Intern(name), Pos: pos},
		Type:   typeDecl,
		Value:  value,
	}
	l.put(id, c)
	l.constants = append(l.constants, id)
	l.attachToOwner(owner, id, name)
	return id
}

func (l *Library) CreateTypeAlias(owner stub.ID, name string, aliased stub.ID, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	t := &stub.TypeName{
		Header:  stub.Header{ID: id, Kind: stub.KindTypeName, Owner: owner, Name: l.Arena.Intern(name), Pos: pos},
		Aliased: aliased,
	}
	l.put(id, t)
	l.typeNames = append(l.typeNames, id)
	l.attachToOwner(owner, id, name)
	return id
}

// CreateTypeRef creates a pending reference to a (possibly qualified)
// type name, resolved later by ResolveTypeRefs.
func (l *Library) CreateTypeRef(context stub.ID, qualifiedName string, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.alloc()
	r := &stub.TypeRef{
		Header:        stub.Header{ID: id, Kind: stub.KindTypeRef, Owner: context, Name: l.Arena.Intern(qualifiedName), Pos: pos},
		QualifiedName: qualifiedName,
		Context:       context,
	}
	l.put(id, r)
	return id
}

// CreateResolvedTypeRef builds a TypeRef already bound to a known
// stub, for engine-synthesized references (e.g. the implicit
// `Core.ScriptedObject` base).
func (l *Library) CreateResolvedTypeRef(context stub.ID, qualifiedName string, resolved stub.ID, pos token.Pos) stub.ID {
	id := l.CreateTypeRef(context, qualifiedName, pos)
	l.TypeRef(id).Resolved = resolved
	return id
}

// CreateEngineType returns the canonical TypeDecl for a primitive
// engine type, allocating it on first use.
func (l *Library) CreateEngineType(engine stub.EngineType) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.engineTypes[engine]; ok {
		return id
	}
	id := l.alloc()
	td := &stub.TypeDecl{
		Header: stub.Header{ID: id, Kind: stub.KindTypeDecl},
		Meta:   stub.MetaEngine,
		Engine: engine,
	}
	l.put(id, td)
	l.engineTypes[engine] = id
	return id
}

func (l *Library) createTypeDecl(meta stub.MetaType, ref, inner stub.ID, size int, pos token.Pos) stub.ID {
	id := l.alloc()
	td := &stub.TypeDecl{
		Header: stub.Header{ID: id, Kind: stub.KindTypeDecl, Pos: pos},
		Meta:   meta,
		Ref:    ref,
		Inner:  inner,
		Size:   size,
	}
	l.put(id, td)
	return id
}

// CreateSimpleType, CreateClassType, CreateSharedPointerType,
// CreateWeakPointerType wrap a TypeRef to a class/enum as the four
// non-engine scalar meta-kinds.
func (l *Library) CreateSimpleType(ref stub.ID, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createTypeDecl(stub.MetaSimple, ref, stub.NoID, 0, pos)
}

func (l *Library) CreateClassType(ref stub.ID, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createTypeDecl(stub.MetaClassType, ref, stub.NoID, 0, pos)
}

func (l *Library) CreateSharedPointerType(ref stub.ID, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createTypeDecl(stub.MetaPtrType, ref, stub.NoID, 0, pos)
}

func (l *Library) CreateWeakPointerType(ref stub.ID, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createTypeDecl(stub.MetaWeakPtrType, ref, stub.NoID, 0, pos)
}

func (l *Library) CreateDynamicArrayType(inner stub.ID, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createTypeDecl(stub.MetaDynamicArrayType, stub.NoID, inner, 0, pos)
}

func (l *Library) CreateStaticArrayType(inner stub.ID, size int, pos token.Pos) stub.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.createTypeDecl(stub.MetaStaticArrayType, stub.NoID, inner, size, pos)
}

// attachToOwner wires a newly-created member into its owner's
// Members/MembersByName (Class) or Members map (Module), reporting a
// duplicate-member error (STB002) on name collision. Called with
// l.mu already held.
func (l *Library) attachToOwner(owner, member stub.ID, name string) {
	switch o := l.all[owner].(type) {
	case *stub.Class:
		if _, dup := o.MembersByName[name]; dup {
			l.reportError("STB002", l.Header(member).Pos, "duplicate member %q in %q", name, o.Name)
		}
		o.Members = append(o.Members, member)
		o.MembersByName[name] = member
	case *stub.Module:
		if _, dup := o.Members[name]; dup {
			l.reportError("STB002", l.Header(member).Pos, "duplicate top-level member %q", name)
		}
		o.Members[name] = member
	}
}
