package awlsim

import "strings"

// InsnType enumerates the mnemonics.
type InsnType int

const (
	InsnInvalid InsnType = iota
	InsnU
	InsnUN
	InsnO
	InsnON
	InsnX
	InsnXN
	InsnUB
	InsnUNB
	InsnOB
	InsnONB
	InsnXB
	InsnXNB
	InsnBEND
	InsnASSIGN
	InsnR
	InsnS
	InsnNOT
	InsnSET
	InsnCLR
	InsnSAVE
	InsnFN
	InsnFP
	InsnEQI
	InsnNEI
	InsnGTI
	InsnLTI
	InsnGEI
	InsnLEI
	InsnEQD
	InsnNED
	InsnGTD
	InsnLTD
	InsnGED
	InsnLED
	InsnEQR
	InsnNER
	InsnGTR
	InsnLTR
	InsnGER
	InsnLER
	InsnBTI
	InsnITB
	InsnBTD
	InsnITD
	InsnDTB
	InsnDTR
	InsnINVI
	InsnINVD
	InsnNEGI
	InsnNEGD
	InsnNEGR
	InsnTAW
	InsnTAD
	InsnRND
	InsnTRUNC
	InsnRNDP
	InsnRNDN
	InsnFR
	InsnL
	InsnLC
	InsnZV
	InsnZR
	InsnAUF
	InsnTDB
	InsnSPA
	InsnSPL
	InsnSPB
	InsnSPBN
	InsnSPBB
	InsnSPBNB
	InsnSPBI
	InsnSPBIN
	InsnSPO
	InsnSPS
	InsnSPZ
	InsnSPN
	InsnSPP
	InsnSPM
	InsnSPPZ
	InsnSPMZ
	InsnSPU
	InsnLOOP
	InsnPLI
	InsnMII
	InsnMUI
	InsnDII
	InsnPL
	InsnPLD
	InsnMID
	InsnMUD
	InsnDID
	InsnMOD
	InsnPLR
	InsnMIR
	InsnMUR
	InsnDIR
	InsnABS
	InsnSQR
	InsnSQRT
	InsnEXP
	InsnLN
	InsnSIN
	InsnCOS
	InsnTAN
	InsnASIN
	InsnACOS
	InsnATAN
	InsnLAR1
	InsnLAR2
	InsnT
	InsnTAR
	InsnTAR1
	InsnTAR2
	InsnBE
	InsnBEB
	InsnBEA
	InsnCALL
	InsnCC
	InsnUC
	InsnMCRB
	InsnBMCR
	InsnMCRA
	InsnMCRD
	InsnSSI
	InsnSSD
	InsnSLW
	InsnSRW
	InsnSLD
	InsnSRD
	InsnRLD
	InsnRRD
	InsnRLDA
	InsnRRDA
	InsnSI
	InsnSV
	InsnSE
	InsnSS
	InsnSA
	InsnUW
	InsnOW
	InsnXOW
	InsnUD
	InsnOD
	InsnXOD
	InsnTAK
	InsnPUSH
	InsnPOP
	InsnENT
	InsnLEAVE
	InsnINC
	InsnDEC
	InsnINCAR1
	InsnINCAR2
	InsnBLD
	InsnNOP
	InsnAssertEQ
	InsnAssertEQR
	InsnAssertNE
	InsnAssertGT
	InsnAssertLT
	InsnAssertGE
	InsnAssertLE
	InsnSleep
	InsnSTWRST
	InsnSSPEC
	InsnFeature

	insnNrTypes
)

// German (primary) mnemonic names.
var insnNamesDE = map[string]InsnType{
	"U":           InsnU,
	"UN":          InsnUN,
	"O":           InsnO,
	"ON":          InsnON,
	"X":           InsnX,
	"XN":          InsnXN,
	"U(":          InsnUB,
	"UN(":         InsnUNB,
	"O(":          InsnOB,
	"ON(":         InsnONB,
	"X(":          InsnXB,
	"XN(":         InsnXNB,
	")":           InsnBEND,
	"=":           InsnASSIGN,
	"R":           InsnR,
	"S":           InsnS,
	"NOT":         InsnNOT,
	"SET":         InsnSET,
	"CLR":         InsnCLR,
	"SAVE":        InsnSAVE,
	"FN":          InsnFN,
	"FP":          InsnFP,
	"==I":         InsnEQI,
	"<>I":         InsnNEI,
	">I":          InsnGTI,
	"<I":          InsnLTI,
	">=I":         InsnGEI,
	"<=I":         InsnLEI,
	"==D":         InsnEQD,
	"<>D":         InsnNED,
	">D":          InsnGTD,
	"<D":          InsnLTD,
	">=D":         InsnGED,
	"<=D":         InsnLED,
	"==R":         InsnEQR,
	"<>R":         InsnNER,
	">R":          InsnGTR,
	"<R":          InsnLTR,
	">=R":         InsnGER,
	"<=R":         InsnLER,
	"BTI":         InsnBTI,
	"ITB":         InsnITB,
	"BTD":         InsnBTD,
	"ITD":         InsnITD,
	"DTB":         InsnDTB,
	"DTR":         InsnDTR,
	"INVI":        InsnINVI,
	"INVD":        InsnINVD,
	"NEGI":        InsnNEGI,
	"NEGD":        InsnNEGD,
	"NEGR":        InsnNEGR,
	"TAW":         InsnTAW,
	"TAD":         InsnTAD,
	"RND":         InsnRND,
	"TRUNC":       InsnTRUNC,
	"RND+":        InsnRNDP,
	"RND-":        InsnRNDN,
	"FR":          InsnFR,
	"L":           InsnL,
	"LC":          InsnLC,
	"ZV":          InsnZV,
	"ZR":          InsnZR,
	"AUF":         InsnAUF,
	"TDB":         InsnTDB,
	"SPA":         InsnSPA,
	"SPL":         InsnSPL,
	"SPB":         InsnSPB,
	"SPBN":        InsnSPBN,
	"SPBB":        InsnSPBB,
	"SPBNB":       InsnSPBNB,
	"SPBI":        InsnSPBI,
	"SPBIN":       InsnSPBIN,
	"SPO":         InsnSPO,
	"SPS":         InsnSPS,
	"SPZ":         InsnSPZ,
	"SPN":         InsnSPN,
	"SPP":         InsnSPP,
	"SPM":         InsnSPM,
	"SPPZ":        InsnSPPZ,
	"SPMZ":        InsnSPMZ,
	"SPU":         InsnSPU,
	"LOOP":        InsnLOOP,
	"+I":          InsnPLI,
	"-I":          InsnMII,
	"*I":          InsnMUI,
	"/I":          InsnDII,
	"+":           InsnPL,
	"+D":          InsnPLD,
	"-D":          InsnMID,
	"*D":          InsnMUD,
	"/D":          InsnDID,
	"MOD":         InsnMOD,
	"+R":          InsnPLR,
	"-R":          InsnMIR,
	"*R":          InsnMUR,
	"/R":          InsnDIR,
	"ABS":         InsnABS,
	"SQR":         InsnSQR,
	"SQRT":        InsnSQRT,
	"EXP":         InsnEXP,
	"LN":          InsnLN,
	"SIN":         InsnSIN,
	"COS":         InsnCOS,
	"TAN":         InsnTAN,
	"ASIN":        InsnASIN,
	"ACOS":        InsnACOS,
	"ATAN":        InsnATAN,
	"LAR1":        InsnLAR1,
	"LAR2":        InsnLAR2,
	"T":           InsnT,
	"TAR":         InsnTAR,
	"TAR1":        InsnTAR1,
	"TAR2":        InsnTAR2,
	"BE":          InsnBE,
	"BEB":         InsnBEB,
	"BEA":         InsnBEA,
	"CALL":        InsnCALL,
	"CC":          InsnCC,
	"UC":          InsnUC,
	"MCR(":        InsnMCRB,
	")MCR":        InsnBMCR,
	"MCRA":        InsnMCRA,
	"MCRD":        InsnMCRD,
	"SSI":         InsnSSI,
	"SSD":         InsnSSD,
	"SLW":         InsnSLW,
	"SRW":         InsnSRW,
	"SLD":         InsnSLD,
	"SRD":         InsnSRD,
	"RLD":         InsnRLD,
	"RRD":         InsnRRD,
	"RLDA":        InsnRLDA,
	"RRDA":        InsnRRDA,
	"SI":          InsnSI,
	"SV":          InsnSV,
	"SE":          InsnSE,
	"SS":          InsnSS,
	"SA":          InsnSA,
	"UW":          InsnUW,
	"OW":          InsnOW,
	"XOW":         InsnXOW,
	"UD":          InsnUD,
	"OD":          InsnOD,
	"XOD":         InsnXOD,
	"TAK":         InsnTAK,
	"PUSH":        InsnPUSH,
	"POP":         InsnPOP,
	"ENT":         InsnENT,
	"LEAVE":       InsnLEAVE,
	"INC":         InsnINC,
	"DEC":         InsnDEC,
	"+AR1":        InsnINCAR1,
	"+AR2":        InsnINCAR2,
	"BLD":         InsnBLD,
	"NOP":         InsnNOP,
	"__ASSERT==":  InsnAssertEQ,
	"__ASSERT==R": InsnAssertEQR,
	"__ASSERT<>":  InsnAssertNE,
	"__ASSERT>":   InsnAssertGT,
	"__ASSERT<":   InsnAssertLT,
	"__ASSERT>=":  InsnAssertGE,
	"__ASSERT<=":  InsnAssertLE,
	"__SLEEP":     InsnSleep,
	"__STWRST":    InsnSTWRST,
	"__SSPEC":     InsnSSPEC,
	"__FEATURE":   InsnFeature,
}

// English mnemonics that differ from the German ones.
var english2german = map[string]string{
	"OPN":  "AUF",
	"BEU":  "BEA",
	"BEC":  "BEB",
	"SF":   "SA",
	"SD":   "SE",
	"SP":   "SI",
	"JU":   "SPA",
	"JC":   "SPB",
	"JCB":  "SPBB",
	"JBI":  "SPBI",
	"JNBI": "SPBIN",
	"JCN":  "SPBN",
	"JNB":  "SPBNB",
	"JL":   "SPL",
	"JM":   "SPM",
	"JMZ":  "SPMZ",
	"JN":   "SPN",
	"JO":   "SPO",
	"JP":   "SPP",
	"JPZ":  "SPPZ",
	"JOS":  "SPS",
	"JUO":  "SPU",
	"JZ":   "SPZ",
	"SE":   "SV",
	"CAD":  "TAD",
	"CAR":  "TAR",
	"CAW":  "TAW",
	"CDB":  "TDB",
	"A":    "U",
	"A(":   "U(",
	"AD":   "UD",
	"AN":   "UN",
	"AN(":  "UN(",
	"AW":   "UW",
	"CD":   "ZR",
	"CU":   "ZV",
}

var german2english = func() map[string]string {
	m := make(map[string]string, len(english2german))
	for en, de := range english2german {
		m[de] = en
	}
	return m
}()

var insnNamesEN = func() map[string]InsnType {
	m := make(map[string]InsnType, len(insnNamesDE))
	for name, t := range insnNamesDE {
		if en, ok := german2english[name]; ok {
			name = en
		}
		m[name] = t
	}
	return m
}()

var insnTypeNames = func() map[InsnType]string {
	m := make(map[InsnType]string, len(insnNamesDE))
	for name, t := range insnNamesDE {
		m[t] = name
	}
	return m
}()

// LookupInsn maps a mnemonic of the given dialect to its type.
func LookupInsn(name string, dialect Mnemonics) (InsnType, bool) {
	name = strings.ToUpper(name)
	names := insnNamesDE
	if dialect == MnemonicsEN {
		names = insnNamesEN
	}
	t, ok := names[name]
	return t, ok
}

func (t InsnType) String() string {
	if name, ok := insnTypeNames[t]; ok {
		return name
	}
	return "INVALID"
}

// IsExtended reports whether t is a "__" debug instruction.
func (t InsnType) IsExtended() bool {
	return t >= InsnAssertEQ && t < insnNrTypes
}
