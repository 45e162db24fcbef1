package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dhamidi/classpool/classfile"
	"github.com/dhamidi/classpool/loaded"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type dumpConstant struct {
	Index uint16 `yaml:"index"`
	Tag   string `yaml:"tag"`
	Value string `yaml:"value"`
}

type dumpField struct {
	Name       string   `yaml:"name"`
	Descriptor string   `yaml:"descriptor"`
	Type       string   `yaml:"type"`
	Flags      []string `yaml:"flags,omitempty"`
	Attributes []string `yaml:"attributes,omitempty"`
}

type dumpMethod struct {
	Name       string   `yaml:"name"`
	Descriptor string   `yaml:"descriptor"`
	Flags      []string `yaml:"flags,omitempty"`
}

type dumpClass struct {
	Class     string         `yaml:"class"`
	Super     string         `yaml:"super,omitempty"`
	Flags     []string       `yaml:"flags,omitempty"`
	Major     uint16         `yaml:"major"`
	Minor     uint16         `yaml:"minor"`
	Count     uint16         `yaml:"constant_pool_count"`
	Constants []dumpConstant `yaml:"constants"`
	Fields    []dumpField    `yaml:"fields"`
	Methods   []dumpMethod   `yaml:"methods,omitempty"`
}

func newDumpCmd(cfg *Config) *cobra.Command {
	var dumpFormat string

	cmd := &cobra.Command{
		Use:   "dump <file.class>",
		Short: "Dump the constant pool and resolved fields of a class file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				dumpFormat = cfg.Format
			}

			cf, err := classfile.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("parse class file: %w", err)
			}
			var opts []loaded.LoadOption
			if cfg.Strict {
				opts = append(opts, loaded.WithStrictValidation())
			}
			class, err := loaded.Load(cf, opts...)
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			log.Debugf("loaded %s with %d fields", class, class.Fields.Len())

			doc := newDumpClass(cf, class)
			switch dumpFormat {
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			case "line":
				return writeDumpLines(os.Stdout, doc)
			default:
				return fmt.Errorf("unknown format: %s (expected line or yaml)", dumpFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format (line, yaml)")

	return cmd
}

func newDumpClass(cf *classfile.ClassFile, class *loaded.Class) dumpClass {
	cp := class.Pool
	doc := dumpClass{
		Class: class.Name.String(),
		Flags: classFlagNames(cf.AccessFlags),
		Major: cf.MajorVersion,
		Minor: cf.MinorVersion,
		Count: cp.Count(),
	}
	if class.SuperName != nil {
		doc.Super = class.SuperName.String()
	}
	for index, entry := range cp.All() {
		doc.Constants = append(doc.Constants, dumpConstant{
			Index: index,
			Tag:   entry.Tag().String(),
			Value: describeConstant(cp, entry),
		})
	}
	for _, f := range class.Fields.Entries() {
		df := dumpField{
			Name:       f.NameString(),
			Descriptor: f.Descriptor.Descriptor(),
			Type:       f.Descriptor.String(),
			Flags:      fieldFlagNames(f.AccessFlags),
		}
		for i := range f.Attributes {
			name, err := f.Attributes[i].Name(cp)
			if err != nil {
				df.Attributes = append(df.Attributes, fmt.Sprintf("#%d (%v)", f.Attributes[i].NameIndex, err))
				continue
			}
			df.Attributes = append(df.Attributes, name.String())
		}
		doc.Fields = append(doc.Fields, df)
	}
	for i := range cf.Methods {
		doc.Methods = append(doc.Methods, newDumpMethod(cp, &cf.Methods[i]))
	}
	return doc
}

// newDumpMethod shows raw indices for a name or descriptor that does not
// resolve; methods are not checked by Load.
func newDumpMethod(cp *classfile.ConstantPool, m *classfile.MethodInfo) dumpMethod {
	dm := dumpMethod{
		Name:       fmt.Sprintf("#%d", m.NameIndex),
		Descriptor: fmt.Sprintf("#%d", m.DescriptorIndex),
		Flags:      methodFlagNames(m.AccessFlags),
	}
	if name, err := m.Name(cp); err == nil {
		dm.Name = name.String()
	}
	if desc, err := m.Descriptor(cp); err == nil {
		dm.Descriptor = desc.String()
	}
	return dm
}

func writeDumpLines(w io.Writer, doc dumpClass) error {
	if len(doc.Flags) > 0 {
		fmt.Fprintf(w, "%s ", strings.Join(doc.Flags, " "))
	}
	fmt.Fprintf(w, "class %s", doc.Class)
	if doc.Super != "" {
		fmt.Fprintf(w, " extends %s", doc.Super)
	}
	fmt.Fprintf(w, " (version %d.%d)\n", doc.Major, doc.Minor)

	fmt.Fprintf(w, "constant pool (count %d):\n", doc.Count)
	for _, c := range doc.Constants {
		fmt.Fprintf(w, "  #%-5d %-18s %s\n", c.Index, c.Tag, c.Value)
	}

	fmt.Fprintf(w, "fields (%d):\n", len(doc.Fields))
	for _, f := range doc.Fields {
		line := strings.TrimSpace(strings.Join(f.Flags, " ") + " " + f.Type + " " + f.Name)
		if len(f.Attributes) > 0 {
			line += " [" + strings.Join(f.Attributes, ", ") + "]"
		}
		if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
			return err
		}
	}

	if len(doc.Methods) == 0 {
		return nil
	}
	fmt.Fprintf(w, "methods (%d):\n", len(doc.Methods))
	for _, m := range doc.Methods {
		line := strings.TrimSpace(strings.Join(m.Flags, " ") + " " + m.Name + m.Descriptor)
		if _, err := fmt.Fprintf(w, "  %s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// describeConstant renders an entry javap style, following references that
// resolve and showing the raw index for those that do not.
func describeConstant(cp *classfile.ConstantPool, entry classfile.PoolEntry) string {
	ref := func(index uint16) string {
		e, err := cp.Entry(index)
		if err != nil {
			return fmt.Sprintf("#%d <%v>", index, err)
		}
		if u, ok := e.(*classfile.Utf8Info); ok {
			return fmt.Sprintf("#%d %q", index, u.String())
		}
		return fmt.Sprintf("#%d", index)
	}

	switch c := entry.(type) {
	case *classfile.Utf8Info:
		return fmt.Sprintf("%q", c.String())
	case *classfile.IntegerInfo:
		return fmt.Sprintf("%d", c.Int32())
	case *classfile.FloatInfo:
		return fmt.Sprintf("%gf", c.Float32())
	case *classfile.LongInfo:
		return fmt.Sprintf("%dl (high 0x%08X low 0x%08X)", c.Int64(), c.HighBytes, c.LowBytes)
	case *classfile.DoubleInfo:
		return fmt.Sprintf("%gd (high 0x%08X low 0x%08X)", c.Float64(), c.HighBytes, c.LowBytes)
	case *classfile.ClassInfo:
		return ref(c.NameIndex)
	case *classfile.StringInfo:
		return ref(c.StringIndex)
	case *classfile.FieldrefInfo:
		return ref(c.ClassIndex) + "." + ref(c.NameAndTypeIndex)
	case *classfile.MethodrefInfo:
		return ref(c.ClassIndex) + "." + ref(c.NameAndTypeIndex)
	case *classfile.InterfaceMethodrefInfo:
		return ref(c.ClassIndex) + "." + ref(c.NameAndTypeIndex)
	case *classfile.NameAndTypeInfo:
		return ref(c.NameIndex) + ":" + ref(c.DescriptorIndex)
	case *classfile.MethodHandleInfo:
		return c.ReferenceKind.String() + " " + ref(c.ReferenceIndex)
	case *classfile.MethodTypeInfo:
		return ref(c.DescriptorIndex)
	case *classfile.DynamicInfo:
		return fmt.Sprintf("bootstrap %d ", c.BootstrapMethodAttrIndex) + ref(c.NameAndTypeIndex)
	case *classfile.InvokeDynamicInfo:
		return fmt.Sprintf("bootstrap %d ", c.BootstrapMethodAttrIndex) + ref(c.NameAndTypeIndex)
	case *classfile.ModuleInfo:
		return ref(c.NameIndex)
	case *classfile.PackageInfo:
		return ref(c.NameIndex)
	}
	return ""
}

type flagName struct {
	set  bool
	name string
}

func flagNames(flags ...flagName) []string {
	var names []string
	for _, flag := range flags {
		if flag.set {
			names = append(names, flag.name)
		}
	}
	return names
}

func fieldFlagNames(f classfile.AccessFlags) []string {
	return flagNames(
		flagName{f.IsPublic(), "public"},
		flagName{f.IsPrivate(), "private"},
		flagName{f.IsProtected(), "protected"},
		flagName{f.IsStatic(), "static"},
		flagName{f.IsFinal(), "final"},
		flagName{f.IsVolatile(), "volatile"},
		flagName{f.IsTransient(), "transient"},
		flagName{f.IsSynthetic(), "synthetic"},
		flagName{f.IsEnum(), "enum"},
	)
}

func classFlagNames(f classfile.AccessFlags) []string {
	return flagNames(
		flagName{f.IsPublic(), "public"},
		flagName{f.IsFinal(), "final"},
		flagName{f.IsSuper(), "super"},
		flagName{f.IsInterface(), "interface"},
		flagName{f.IsAbstract(), "abstract"},
		flagName{f.IsSynthetic(), "synthetic"},
		flagName{f.IsAnnotation(), "annotation"},
		flagName{f.IsEnum(), "enum"},
		flagName{f.IsModule(), "module"},
	)
}

func methodFlagNames(f classfile.AccessFlags) []string {
	return flagNames(
		flagName{f.IsPublic(), "public"},
		flagName{f.IsPrivate(), "private"},
		flagName{f.IsProtected(), "protected"},
		flagName{f.IsStatic(), "static"},
		flagName{f.IsFinal(), "final"},
		flagName{f.IsSynchronized(), "synchronized"},
		flagName{f.IsBridge(), "bridge"},
		flagName{f.IsVarargs(), "varargs"},
		flagName{f.IsNative(), "native"},
		flagName{f.IsAbstract(), "abstract"},
		flagName{f.IsStrict(), "strict"},
		flagName{f.IsSynthetic(), "synthetic"},
	)
}
