package cgen

import "strings"

// cFuncs lists standard library functions that need no synthesized
// declaration; their prototypes come from the C headers.
var cFuncs = map[string]bool{
	"printf":  true,
	"fprintf": true,
	"sprintf": true,
	"scanf":   true,
	"fscanf":  true,
	"sscanf":  true,
	"puts":    true,
	"putchar": true,
	"getchar": true,
	"fopen":   true,
	"fclose":  true,
	"fread":   true,
	"fwrite":  true,
	"fgets":   true,
	"fputs":   true,
	"malloc":  true,
	"calloc":  true,
	"realloc": true,
	"free":    true,
	"memcpy":  true,
	"memmove": true,
	"memset":  true,
	"memcmp":  true,
	"strlen":  true,
	"strcpy":  true,
	"strncpy": true,
	"strcat":  true,
	"strncat": true,
	"strcmp":  true,
	"strncmp": true,
	"strchr":  true,
	"strstr":  true,
	"atoi":    true,
	"atol":    true,
	"atof":    true,
	"abs":     true,
	"labs":    true,
	"exit":    true,
	"abort":   true,
	"rand":    true,
	"srand":   true,
	"qsort":   true,
}

// cMath lists math.h functions, used both for declaration suppression and
// for intrinsic rewriting.
var cMath = map[string]bool{
	"sqrt":  true,
	"sin":   true,
	"cos":   true,
	"tan":   true,
	"asin":  true,
	"acos":  true,
	"atan":  true,
	"atan2": true,
	"exp":   true,
	"exp2":  true,
	"log":   true,
	"log2":  true,
	"log10": true,
	"pow":   true,
	"fabs":  true,
	"floor": true,
	"ceil":  true,
	"round": true,
	"trunc": true,
	"fmod":  true,
	"fmin":  true,
	"fmax":  true,
	"fma":   true,
}

// isCFunc reports whether name has an equivalent in the standard C library.
func isCFunc(name string) bool {
	return cFuncs[name] || isCMath(name)
}

// isCMath reports whether name has an equivalent in math.h.
func isCMath(name string) bool {
	if cMath[name] {
		return true
	}
	// Single-precision variants like sqrtf.
	if base, ok := strings.CutSuffix(name, "f"); ok {
		return cMath[base]
	}
	return false
}

// memFuncArgs is how many leading arguments of the memory intrinsics carry
// over to C; the trailing volatile flag is dropped.
const memFuncArgs = 3

// intrinsicCFunc maps an llvm.* intrinsic name to the C function that
// replaces it and the number of arguments to keep (-1 keeps all). The
// lookup strips the type suffixes, so llvm.memcpy.p0i8.p0i8.i64 and
// llvm.sqrt.f64 resolve by their stem.
func intrinsicCFunc(name string) (cName string, argN int, ok bool) {
	stem := strings.TrimPrefix(name, "llvm.")
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}

	switch stem {
	case "memcpy", "memmove", "memset":
		return stem, memFuncArgs, true
	case "va_start", "va_end", "va_copy":
		return stem, -1, true
	case "fmuladd":
		return "fma", -1, true
	}
	if cMath[stem] {
		return stem, -1, true
	}
	return "", 0, false
}
